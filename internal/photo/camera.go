package photo

import (
	"context"
	"errors"
)

// ErrNoFrame is returned when the camera has no content to capture.
var ErrNoFrame = errors.New("camera produced no frame")

// StaticCamera is a capture source that stores a fixed frame through a
// photo store. It stands in for a hardware camera on headless hosts and
// in tests.
type StaticCamera struct {
	store       Store
	content     []byte
	contentType string
}

// NewStaticCamera wires a fixed frame to a photo store.
func NewStaticCamera(store Store, content []byte, contentType string) *StaticCamera {
	return &StaticCamera{store: store, content: content, contentType: contentType}
}

// Capture stores the frame and returns its photo reference.
func (c *StaticCamera) Capture(ctx context.Context) (string, error) {
	if len(c.content) == 0 {
		return "", ErrNoFrame
	}
	return c.store.Save(ctx, c.content, c.contentType)
}
