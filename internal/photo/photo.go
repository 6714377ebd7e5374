// Package photo stores captured defect photos and hands back stable
// references for markers to carry.
package photo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store persists photo content and resolves references back to bytes.
// References are what markers carry in their photoUrl field.
type Store interface {
	Save(ctx context.Context, content []byte, contentType string) (string, error)
	Load(ctx context.Context, ref string) ([]byte, error)
}

// LocalStore writes photos to a local directory.
type LocalStore struct {
	dir string
	now func() time.Time
}

// NewLocalStore creates a local photo store rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir, now: time.Now}
}

// Save writes the photo to disk and returns its filename as reference.
func (s *LocalStore) Save(ctx context.Context, content []byte, contentType string) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create photo directory: %w", err)
	}

	name := fmt.Sprintf("photo_%d%s", s.now().UnixMilli(), extensionFor(contentType))
	if err := os.WriteFile(filepath.Join(s.dir, name), content, 0644); err != nil {
		return "", fmt.Errorf("failed to write photo: %w", err)
	}
	return name, nil
}

// Load reads a previously saved photo by reference.
func (s *LocalStore) Load(ctx context.Context, ref string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(s.dir, ref))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo %s: %w", ref, err)
	}
	return content, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	default:
		return ".jpg"
	}
}
