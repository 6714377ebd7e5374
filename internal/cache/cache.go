// Package cache keeps recently loaded photo bytes in memory so
// re-running analysis on the same draft does not hit storage again.
// Latency matters here: analysis requests block on the photo load.
package cache

import (
	"context"
	"sync"

	"planmark/internal/photo"
)

// defaultMaxEntries bounds the cache. Photos are a few MB each, so
// keep only a handful.
const defaultMaxEntries = 8

// PhotoCache caches photo content keyed by reference.
type PhotoCache struct {
	m       sync.Mutex
	photos  map[string][]byte
	order   []string
	maxSize int
}

// NewPhotoCache creates an empty cache with the default size bound.
func NewPhotoCache() *PhotoCache {
	return &PhotoCache{
		photos:  make(map[string][]byte),
		maxSize: defaultMaxEntries,
	}
}

// Get returns cached photo bytes.
func (c *PhotoCache) Get(ref string) ([]byte, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if content, ok := c.photos[ref]; ok {
		return content, true
	}
	return nil, false
}

// Add stores photo bytes, evicting the oldest entry when full.
func (c *PhotoCache) Add(ref string, content []byte) {
	c.m.Lock()
	defer c.m.Unlock()

	if _, ok := c.photos[ref]; ok {
		return
	}
	if len(c.order) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.photos, oldest)
	}
	c.photos[ref] = content
	c.order = append(c.order, ref)
}

// Reset drops all cached photos.
func (c *PhotoCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.photos = make(map[string][]byte)
	c.order = nil
}

// Len returns the number of cached photos.
func (c *PhotoCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.photos)
}

// Loader wraps a photo store with the cache.
type Loader struct {
	inner photo.Store
	cache *PhotoCache
}

// NewLoader creates a caching loader over the given photo store.
func NewLoader(inner photo.Store) *Loader {
	return &Loader{inner: inner, cache: NewPhotoCache()}
}

// Load returns cached bytes when present, otherwise reads through.
func (l *Loader) Load(ctx context.Context, ref string) ([]byte, error) {
	if content, ok := l.cache.Get(ref); ok {
		return content, nil
	}
	content, err := l.inner.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	l.cache.Add(ref, content)
	return content, nil
}
