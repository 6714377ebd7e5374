package influx

import (
	"context"
	"time"

	"planmark/internal/dispatcher"
	"planmark/pkg/core"
)

// AnalysisEvent is the payload of the analysis:completed event.
type AnalysisEvent struct {
	Result   core.AnalysisResult
	Duration time.Duration
}

// RegisterHandlers subscribes the metrics sink to marker and analysis
// events. Writes are buffered so a slow InfluxDB never blocks saving.
func RegisterHandlers(d *dispatcher.Dispatcher, m *Manager) {
	d.Register("marker:saved", func(e dispatcher.Event) (any, error) {
		marker, ok := e.Payload.(core.Marker)
		if !ok {
			return nil, nil
		}
		bucket, point := MarkerPoint(marker)
		return nil, m.WritePoint(context.Background(), bucket, point)
	}, dispatcher.Buffered(64))

	d.Register("analysis:completed", func(e dispatcher.Event) (any, error) {
		ev, ok := e.Payload.(AnalysisEvent)
		if !ok {
			return nil, nil
		}
		bucket, point := AnalysisPoint(ev.Result, ev.Duration)
		return nil, m.WritePoint(context.Background(), bucket, point)
	}, dispatcher.Buffered(64))
}
