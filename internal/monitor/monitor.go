// Package monitor reports application health: marker counts, view
// state, and analysis service reachability. Status snapshots can be
// pushed to InfluxDB on an interval.
package monitor

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"planmark/internal/store"
	"planmark/pkg/core"
)

// Healthchecker reports whether the analysis service answers.
type Healthchecker interface {
	Healthcheck() error
}

// MetricsSink accepts status points.
type MetricsSink interface {
	WritePoint(ctx context.Context, bucket string, point *influxdb2_write.Point) error
}

// Status is one snapshot of application state.
type Status struct {
	Time            time.Time     `json:"time"`
	MarkerCount     int           `json:"markerCount"`
	SealedCount     int           `json:"sealedCount"`
	Mode            core.ViewMode `json:"mode"`
	AnalysisHealthy bool          `json:"analysisHealthy"`
	Goroutines      int           `json:"goroutines"`
	HeapBytes       uint64        `json:"heapBytes"`
}

// Service samples status and optionally exports it.
type Service struct {
	records store.Store
	health  Healthchecker
	sink    MetricsSink
	log     *slog.Logger

	mu        sync.Mutex
	isRunning bool
	stopChan  chan struct{}
}

// NewService creates a monitor. The sink may be nil to disable export.
func NewService(records store.Store, health Healthchecker, sink MetricsSink, log *slog.Logger) *Service {
	return &Service{
		records:  records,
		health:   health,
		sink:     sink,
		log:      log,
		stopChan: make(chan struct{}),
	}
}

// Snapshot samples the current application status.
func (s *Service) Snapshot() Status {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	markers := s.records.Records()
	sealed := 0
	for _, m := range markers {
		if m.Sealed() {
			sealed++
		}
	}

	return Status{
		Time:            time.Now(),
		MarkerCount:     len(markers),
		SealedCount:     sealed,
		Mode:            s.records.Mode(),
		AnalysisHealthy: s.health.Healthcheck() == nil,
		Goroutines:      runtime.NumGoroutine(),
		HeapBytes:       mem.HeapAlloc,
	}
}

// SnapshotJSON returns the status snapshot as indented JSON.
func (s *Service) SnapshotJSON() (string, error) {
	raw, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// IsRunning returns whether the periodic export loop is running.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Start launches the periodic export loop. A stopped service can be
// started again.
func (s *Service) Start(interval time.Duration) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.export()
			case <-stop:
				return
			}
		}
	}()
}

// Stop halts the export loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.isRunning = false
	close(s.stopChan)
}

// Export pushes one status point to the sink immediately.
func (s *Service) Export() {
	s.export()
}

func (s *Service) export() {
	if s.sink == nil {
		return
	}

	status := s.Snapshot()
	point := influxdb2_write.NewPointWithMeasurement("app_status").
		AddTag("mode", string(status.Mode)).
		AddField("markerCount", status.MarkerCount).
		AddField("sealedCount", status.SealedCount).
		AddField("analysisHealthy", status.AnalysisHealthy).
		AddField("goroutines", status.Goroutines).
		AddField("heapBytes", int64(status.HeapBytes)).
		SetTime(status.Time)

	if err := s.sink.WritePoint(context.Background(), "inspection_data", point); err != nil {
		s.log.Error("Failed to export status point", "error", err)
	}
}
