// Package workflow drives the marker creation flow: arm placement, tap
// the plan, photograph the defect, then annotate. One draft exists at a
// time and every path out of the flow lands back in the idle state.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"planmark/internal/geo"
	"planmark/internal/plan"
	"planmark/pkg/core"
)

// State is the current step of the marker creation flow.
type State string

const (
	// StateIdle means no marker is being created.
	StateIdle State = "IDLE"
	// StateCamera means a position is fixed and a photo is expected.
	StateCamera State = "CAMERA"
	// StatePreview shows the captured photo for accept or retake.
	StatePreview State = "PREVIEW"
	// StateInput collects notes, sketch, and analysis for the draft.
	StateInput State = "INPUT"
)

var (
	// ErrInvalidTransition is returned when an operation is not legal
	// in the current state.
	ErrInvalidTransition = errors.New("operation not allowed in current state")
	// ErrNotPlacing is returned when a tap arrives without placement
	// being armed.
	ErrNotPlacing = errors.New("marker placement is not armed")
	// ErrWrongMode is returned when a marker is placed outside the
	// inspect view.
	ErrWrongMode = errors.New("markers can only be placed in inspect mode")
	// ErrOutOfBounds is returned when a tap resolves outside the plan.
	ErrOutOfBounds = errors.New("position is outside the plan")
)

// Camera produces a stored photo reference for the current scene.
type Camera interface {
	Capture(ctx context.Context) (string, error)
}

// Controller owns the marker creation state machine and the draft
// being built. All methods are safe for concurrent use.
type Controller struct {
	mu         sync.Mutex
	state      State
	draft      *core.Draft
	placing    bool
	generation uint64

	camera Camera
	hit    plan.HitTester
	log    *slog.Logger

	placed   metric.Int64Counter
	captures metric.Int64Counter
	aborts   metric.Int64Counter
}

// NewController creates an idle workflow controller. The hit tester is
// optional; without it every marker lands on plan background.
func NewController(camera Camera, hit plan.HitTester, log *slog.Logger) (*Controller, error) {
	c := &Controller{
		state:  StateIdle,
		camera: camera,
		hit:    hit,
		log:    log,
	}

	m := meter()
	var err error
	c.placed, err = m.Int64Counter(
		"workflow.markers.placed",
		metric.WithDescription("Total marker positions placed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating placed counter: %w", err)
	}
	c.captures, err = m.Int64Counter(
		"workflow.photos.captured",
		metric.WithDescription("Total photos captured"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating captures counter: %w", err)
	}
	c.aborts, err = m.Int64Counter(
		"workflow.flows.aborted",
		metric.WithDescription("Total marker flows abandoned before save"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating aborts counter: %w", err)
	}

	return c, nil
}

// State returns the current flow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetPlacing arms or disarms marker placement. Only meaningful while idle.
func (c *Controller) SetPlacing(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.placing = on
}

// Placing reports whether the next plan tap will place a marker.
func (c *Controller) Placing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.placing
}

// PlaceAt handles a tap on the plan. The screen position is mapped
// through the inverse view transform into plan coordinates, resolved
// against plan elements, and becomes the position of a new draft.
// Placement disarms after a successful tap.
func (c *Controller) PlaceAt(mode core.ViewMode, view geo.Transform, screen core.Position2D) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if mode != core.ModeInspect {
		return ErrWrongMode
	}
	if !c.placing {
		return ErrNotPlacing
	}
	if c.state != StateIdle {
		return fmt.Errorf("%w: state %s", ErrInvalidTransition, c.state)
	}

	pt, err := geo.ToPlan(view, screen)
	if err != nil {
		return err
	}
	if !geo.InBounds(pt) {
		return ErrOutOfBounds
	}

	draft := &core.Draft{X: pt.X, Y: pt.Y}
	if c.hit != nil {
		if hits := c.hit.Query(pt); len(hits) > 0 {
			el := hits[0]
			draft.Element = &el
		}
	}

	c.draft = draft
	c.state = StateCamera
	c.placing = false
	c.placed.Add(context.Background(), 1)

	if draft.Element != nil {
		c.log.Info("Marker placed", "x", pt.X, "y", pt.Y, "element", draft.Element.ElementID)
	} else {
		c.log.Info("Marker placed on background", "x", pt.X, "y", pt.Y)
	}
	return nil
}

// Capture photographs the defect and attaches the photo reference to
// the draft. A camera failure keeps the flow in the camera state so
// the shot can be retried.
func (c *Controller) Capture(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCamera {
		return fmt.Errorf("%w: state %s", ErrInvalidTransition, c.state)
	}

	ref, err := c.camera.Capture(ctx)
	if err != nil {
		c.log.Error("Photo capture failed", "error", err)
		return fmt.Errorf("photo capture failed: %w", err)
	}

	c.draft.PhotoURL = ref
	c.state = StatePreview
	c.captures.Add(ctx, 1)
	return nil
}

// Retake discards the previewed photo and returns to the camera.
func (c *Controller) Retake() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePreview {
		return fmt.Errorf("%w: state %s", ErrInvalidTransition, c.state)
	}
	c.draft.PhotoURL = ""
	c.state = StateCamera
	return nil
}

// Confirm accepts the previewed photo and opens the annotation step.
func (c *Controller) Confirm() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePreview {
		return fmt.Errorf("%w: state %s", ErrInvalidTransition, c.state)
	}
	c.state = StateInput
	return nil
}

// Abort abandons the flow from any state. The draft is discarded and
// any in-flight analysis for it becomes stale.
func (c *Controller) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIdle && c.draft == nil {
		return
	}
	c.reset()
	c.aborts.Add(context.Background(), 1)
	c.log.Info("Marker flow aborted")
}

// reset returns to idle. Caller must hold the lock.
func (c *Controller) reset() {
	c.state = StateIdle
	c.draft = nil
	c.placing = false
	c.generation++
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() (core.Draft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.draft == nil {
		return core.Draft{}, false
	}
	return *c.draft, true
}

// DraftSnapshot returns the draft copy together with the generation it
// belongs to. Both are read under one lock so a result computed from
// the snapshot can be checked against the same draft it came from.
func (c *Controller) DraftSnapshot() (core.Draft, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.draft == nil {
		return core.Draft{}, c.generation, false
	}
	return *c.draft, c.generation, true
}

// UpdateDraft mutates the draft during the annotation step.
func (c *Controller) UpdateDraft(fn func(*core.Draft)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInput {
		return fmt.Errorf("%w: state %s", ErrInvalidTransition, c.state)
	}
	fn(c.draft)
	return nil
}

// Generation identifies the current draft. Results computed for an
// earlier generation must be discarded.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// MergeAnalysis attaches an analysis result to the draft it was
// requested for. Results for a stale generation are dropped and the
// method reports false.
func (c *Controller) MergeAnalysis(gen uint64, result core.AnalysisResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.state != StateInput || c.draft == nil {
		c.log.Debug("Dropping stale analysis result", "generation", gen)
		return false
	}
	c.draft.Analysis = &result
	return true
}

// FinishSave closes the flow after the draft has been persisted.
func (c *Controller) FinishSave() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInput {
		return fmt.Errorf("%w: state %s", ErrInvalidTransition, c.state)
	}
	c.reset()
	return nil
}
