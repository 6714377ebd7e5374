// Package annotate edits the draft during the input step and turns it
// into a saved marker.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"planmark/internal/analysis"
	"planmark/internal/dispatcher"
	"planmark/internal/influx"
	"planmark/internal/sketch"
	"planmark/internal/store"
	"planmark/internal/workflow"
	"planmark/pkg/core"
)

var (
	// ErrNoDraft is returned when no marker flow is in progress.
	ErrNoDraft = errors.New("no draft in progress")
	// ErrPhotoRequired is returned when saving or analyzing a draft
	// without a photo.
	ErrPhotoRequired = errors.New("draft has no photo")
	// ErrAnalysisInFlight is returned when an analysis request is
	// already running for the current draft.
	ErrAnalysisInFlight = errors.New("analysis already in progress")
)

// Analyzer classifies a defect from its photo, notes, and element context.
type Analyzer interface {
	Analyze(photo []byte, text string, element *core.PlanElement) (core.AnalysisResult, error)
}

// PhotoLoader resolves a stored photo reference back to bytes.
type PhotoLoader interface {
	Load(ctx context.Context, ref string) ([]byte, error)
}

// Notifier surfaces user-facing notices (toasts on the device).
type Notifier interface {
	Notify(message string)
}

// Editor drives the annotation step of the marker flow.
type Editor struct {
	flow     *workflow.Controller
	records  store.Store
	analyzer Analyzer
	photos   PhotoLoader
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
	events   *dispatcher.Dispatcher

	mu       sync.Mutex
	inFlight bool
}

// NewEditor wires the annotation editor to its collaborators.
func NewEditor(flow *workflow.Controller, records store.Store, analyzer Analyzer, photos PhotoLoader, notifier Notifier, log *slog.Logger) *Editor {
	return &Editor{
		flow:     flow,
		records:  records,
		analyzer: analyzer,
		photos:   photos,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// WithEvents publishes marker and analysis events to the given bus.
func (e *Editor) WithEvents(events *dispatcher.Dispatcher) *Editor {
	e.events = events
	return e
}

// SetText replaces the draft's inspector notes.
func (e *Editor) SetText(text string) error {
	return e.flow.UpdateDraft(func(d *core.Draft) {
		d.TextValue = text
	})
}

// SetSketch validates and stores the draft's freehand drawing.
func (e *Editor) SetSketch(data string) error {
	if _, err := sketch.Parse(data); err != nil {
		return err
	}
	return e.flow.UpdateDraft(func(d *core.Draft) {
		d.DrawingData = data
	})
}

// ClearSketch removes the draft's drawing.
func (e *Editor) ClearSketch() error {
	return e.flow.UpdateDraft(func(d *core.Draft) {
		d.DrawingData = ""
	})
}

// RequestAnalysis sends the draft to the analysis service in the
// background. The returned channel delivers exactly one result: the
// service's answer, or a fallback when the service failed. Failed
// analyses are surfaced to the user and never merged into the draft.
func (e *Editor) RequestAnalysis(ctx context.Context) (<-chan core.AnalysisResult, error) {
	draft, gen, ok := e.flow.DraftSnapshot()
	if !ok {
		return nil, ErrNoDraft
	}
	if draft.PhotoURL == "" {
		return nil, ErrPhotoRequired
	}

	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return nil, ErrAnalysisInFlight
	}
	e.inFlight = true
	e.mu.Unlock()

	out := make(chan core.AnalysisResult, 1)

	go func() {
		defer func() {
			e.mu.Lock()
			e.inFlight = false
			e.mu.Unlock()
		}()

		start := time.Now()
		result, err := e.runAnalysis(ctx, draft)
		if e.events != nil {
			outcome := result
			if err != nil {
				outcome = analysis.FallbackResult()
			}
			e.events.Publish("analysis:completed", influx.AnalysisEvent{
				Result:   outcome,
				Duration: time.Since(start),
			})
		}
		if err != nil {
			e.log.Error("Defect analysis failed", "error", err)
			e.notifier.Notify("Analysis unavailable, marker will be saved without classification")
			out <- analysis.FallbackResult()
			return
		}

		if e.flow.MergeAnalysis(gen, result) {
			e.log.Info("Defect analysis merged", "defectType", result.DefectType)
		}
		out <- result
	}()

	return out, nil
}

func (e *Editor) runAnalysis(ctx context.Context, draft core.Draft) (core.AnalysisResult, error) {
	photoBytes, err := e.photos.Load(ctx, draft.PhotoURL)
	if err != nil {
		return core.AnalysisResult{}, fmt.Errorf("failed to load draft photo: %w", err)
	}
	return e.analyzer.Analyze(photoBytes, draft.TextValue, draft.Element)
}

// Save turns the draft into a marker, persists it, and closes the flow.
// Only the input step can commit; nothing is stored when the flow is
// anywhere else. Analysis results are written only when the service
// actually answered; a fallback leaves the marker unsealed.
func (e *Editor) Save() (core.Marker, error) {
	draft, ok := e.flow.Draft()
	if !ok {
		return core.Marker{}, ErrNoDraft
	}
	if state := e.flow.State(); state != workflow.StateInput {
		return core.Marker{}, fmt.Errorf("%w: state %s", workflow.ErrInvalidTransition, state)
	}
	if draft.PhotoURL == "" {
		return core.Marker{}, ErrPhotoRequired
	}

	now := e.now()
	m := core.Marker{
		ID:          core.NewID(now),
		X:           draft.X,
		Y:           draft.Y,
		PhotoURL:    draft.PhotoURL,
		TextValue:   annotatedText(draft),
		DrawingData: draft.DrawingData,
		CreatedAt:   now.UnixMilli(),
	}
	if draft.Analysis != nil && !draft.Analysis.Fallback {
		m.DefectType = draft.Analysis.DefectType
		m.Metrics = draft.Analysis.Metrics
	}

	if err := e.records.AddRecord(m); err != nil {
		return core.Marker{}, fmt.Errorf("failed to save marker: %w", err)
	}
	if err := e.flow.FinishSave(); err != nil {
		return core.Marker{}, err
	}

	if e.events != nil {
		e.events.Publish("marker:saved", m)
	}
	e.log.Info("Marker saved", "id", m.ID, "defectType", m.DefectType)
	return m, nil
}

// annotatedText appends the matched element's name to the notes so the
// record is readable without the plan.
func annotatedText(draft core.Draft) string {
	if draft.Element == nil || draft.Element.Name == "" {
		return draft.TextValue
	}
	if draft.TextValue == "" {
		return fmt.Sprintf("[%s]", draft.Element.Name)
	}
	return fmt.Sprintf("%s [%s]", draft.TextValue, draft.Element.Name)
}
