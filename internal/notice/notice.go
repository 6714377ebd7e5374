// Package notice buffers user-facing messages until the display layer
// is ready to show them. Background work (analysis, metrics export)
// posts notices without blocking on the UI.
package notice

import (
	"sync"
	"time"
)

// Notice is one pending user message.
type Notice struct {
	Message string
	Time    time.Time
}

// Center is a thread-safe buffer of pending notices.
type Center struct {
	mu      sync.Mutex
	pending []Notice
	now     func() time.Time
}

// NewCenter creates an empty notice center.
func NewCenter() *Center {
	return &Center{now: time.Now}
}

// Notify queues a message for display.
func (c *Center) Notify(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, Notice{Message: message, Time: c.now()})
}

// Drain returns all pending notices in arrival order and clears the buffer.
func (c *Center) Drain() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := c.pending
	c.pending = make([]Notice, 0, cap(c.pending))
	return result
}

// Len returns the number of pending notices.
func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Empty returns true if no notices are pending.
func (c *Center) Empty() bool {
	return c.Len() == 0
}
