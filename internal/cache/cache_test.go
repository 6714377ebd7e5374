package cache

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"testing"
)

type countingStore struct {
	loads atomic.Int32
}

func (s *countingStore) Save(ctx context.Context, content []byte, contentType string) (string, error) {
	return "", nil
}

func (s *countingStore) Load(ctx context.Context, ref string) ([]byte, error) {
	s.loads.Add(1)
	return []byte(ref), nil
}

func TestPhotoCache_GetAdd(t *testing.T) {
	c := NewPhotoCache()

	if _, ok := c.Get("photo_1.jpg"); ok {
		t.Error("expected miss on empty cache")
	}

	c.Add("photo_1.jpg", []byte{1, 2, 3})
	content, ok := c.Get("photo_1.jpg")
	if !ok {
		t.Fatal("expected hit after add")
	}
	if !bytes.Equal(content, []byte{1, 2, 3}) {
		t.Error("cached content mismatch")
	}
}

func TestPhotoCache_EvictsOldest(t *testing.T) {
	c := NewPhotoCache()

	for i := 0; i < defaultMaxEntries+1; i++ {
		c.Add(fmt.Sprintf("photo_%d.jpg", i), []byte{byte(i)})
	}

	if c.Len() != defaultMaxEntries {
		t.Errorf("expected %d entries, got %d", defaultMaxEntries, c.Len())
	}
	if _, ok := c.Get("photo_0.jpg"); ok {
		t.Error("expected oldest entry evicted")
	}
	if _, ok := c.Get(fmt.Sprintf("photo_%d.jpg", defaultMaxEntries)); !ok {
		t.Error("expected newest entry present")
	}
}

func TestPhotoCache_Reset(t *testing.T) {
	c := NewPhotoCache()
	c.Add("photo_1.jpg", []byte{1})

	c.Reset()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after reset, got %d", c.Len())
	}
}

func TestLoader_ReadsThroughOnce(t *testing.T) {
	store := &countingStore{}
	loader := NewLoader(store)

	for i := 0; i < 3; i++ {
		content, err := loader.Load(context.Background(), "photo_1.jpg")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if string(content) != "photo_1.jpg" {
			t.Errorf("unexpected content %q", content)
		}
	}

	if store.loads.Load() != 1 {
		t.Errorf("expected 1 backing load, got %d", store.loads.Load())
	}
}
