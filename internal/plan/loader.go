package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"planmark/pkg/core"
)

// Element describes one plan element as served by the plan endpoint.
// Bounds is the element's axis-aligned outline on the plan canvas
// in [minX, minY, maxX, maxY] order.
type Element struct {
	ElementID        string            `json:"element_id"`
	Name             string            `json:"name"`
	Category         string            `json:"category"`
	StaticProperties map[string]string `json:"static_info"`
	Bounds           [4]float64        `json:"bounds"`
}

// Loader fetches the floor plan drawing and its element metadata.
// Both are fetched once and cached for the lifetime of the loader.
type Loader struct {
	svgURL      string
	elementsURL string
	httpClient  *http.Client

	mu       sync.Mutex
	svg      string
	elements []Element
	loaded   bool
}

// NewLoader creates a loader for the given plan endpoints.
func NewLoader(svgURL, elementsURL string) *Loader {
	return &Loader{
		svgURL:      strings.TrimRight(svgURL, "/"),
		elementsURL: strings.TrimRight(elementsURL, "/"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Load fetches the plan SVG and element metadata if not already cached.
func (l *Loader) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded {
		return nil
	}

	svg, err := l.fetch(ctx, l.svgURL)
	if err != nil {
		return fmt.Errorf("failed to fetch plan drawing: %w", err)
	}

	raw, err := l.fetch(ctx, l.elementsURL)
	if err != nil {
		return fmt.Errorf("failed to fetch plan elements: %w", err)
	}

	var elements []Element
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		return fmt.Errorf("failed to parse plan elements: %w", err)
	}

	l.svg = svg
	l.elements = elements
	l.loaded = true
	return nil
}

func (l *Loader) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("plan endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}

// SVG returns the cached plan drawing. Load must have succeeded first.
func (l *Loader) SVG() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.svg
}

// Elements returns the cached element list. Load must have succeeded first.
func (l *Loader) Elements() []Element {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.elements
}

// Core converts an Element to its domain representation.
func (e Element) Core() core.PlanElement {
	return core.PlanElement{
		ElementID:        e.ElementID,
		Name:             e.Name,
		Category:         e.Category,
		StaticProperties: e.StaticProperties,
	}
}
