package influx

import (
	"context"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"planmark/pkg/core"
)

func fieldValue(point *influxdb2_write.Point, name string) (any, bool) {
	for _, f := range point.FieldList() {
		if f.Key == name {
			return f.Value, true
		}
	}
	return nil, false
}

func TestMarkerPoint(t *testing.T) {
	m := core.Marker{
		ID:         1717000000000,
		X:          120.5,
		Y:          340.2,
		PhotoURL:   "photo_1.jpg",
		TextValue:  "crack",
		CreatedAt:  1717000000000,
		DefectType: "CRACK",
	}

	bucket, point := MarkerPoint(m)
	if bucket != "inspection_data" {
		t.Errorf("expected inspection_data bucket, got %s", bucket)
	}
	if point.Name() != "marker_saved" {
		t.Errorf("expected marker_saved measurement, got %s", point.Name())
	}

	if v, ok := fieldValue(point, "x"); !ok || v != 120.5 {
		t.Errorf("expected x=120.5, got %v", v)
	}
	if v, ok := fieldValue(point, "hasPhoto"); !ok || v != true {
		t.Errorf("expected hasPhoto=true, got %v", v)
	}
	if !point.Time().Equal(time.UnixMilli(1717000000000)) {
		t.Errorf("expected point time from CreatedAt, got %v", point.Time())
	}
}

func TestAnalysisPoint(t *testing.T) {
	result := core.AnalysisResult{
		DefectType: "LEAKAGE",
		Metrics:    core.Metrics{"width": 1.5},
	}

	bucket, point := AnalysisPoint(result, 250*time.Millisecond)
	if bucket != "analysis_performance" {
		t.Errorf("expected analysis_performance bucket, got %s", bucket)
	}
	if v, ok := fieldValue(point, "durationMs"); !ok || v != int64(250) {
		t.Errorf("expected durationMs=250, got %v", v)
	}
	if v, ok := fieldValue(point, "metric_width"); !ok || v != 1.5 {
		t.Errorf("expected metric_width=1.5, got %v", v)
	}
	if v, ok := fieldValue(point, "fallback"); !ok || v != false {
		t.Errorf("expected fallback=false, got %v", v)
	}
}

func TestWritePoint_NoClientNoBackup(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")

	_, point := MarkerPoint(core.Marker{CreatedAt: 1})
	if err := m.WritePoint(context.Background(), "inspection_data", point); err == nil {
		t.Fatal("expected error without client or backup writer")
	}
}
