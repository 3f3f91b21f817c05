// Package cache keeps decoded page images resident only while pages that
// reference them are still to be drawn.
package cache

import (
	"context"
	"fmt"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pwnholic/docexport/internal/sources"
)

// ImageCache loads bitmaps on demand and evicts each one when its
// reference count drops to zero. It is scoped to a single export.
type ImageCache struct {
	loader Loader
	store  *gocache.Cache

	mu    sync.Mutex
	refs  map[string]int
	loads int
}

func New(loader Loader) *ImageCache {
	return &ImageCache{
		loader: loader,
		store:  gocache.New(gocache.NoExpiration, 0),
		refs:   make(map[string]int),
	}
}

// Retain adds reference counts, typically one per plan page using the image.
func (c *ImageCache) Retain(counts map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ref, n := range counts {
		if n > 0 {
			c.refs[ref] += n
		}
	}
}

// Get returns the bitmap for img, loading it if it is not resident.
func (c *ImageCache) Get(ctx context.Context, img sources.Image) (*Bitmap, error) {
	if v, ok := c.store.Get(img.Ref); ok {
		return v.(*Bitmap), nil
	}

	bmp, err := c.loader.Load(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", img.Ref, err)
	}

	c.mu.Lock()
	c.loads++
	c.mu.Unlock()

	c.store.Set(img.Ref, bmp, gocache.NoExpiration)
	return bmp, nil
}

// Release drops one reference to ref and evicts the bitmap once no
// references remain. Releasing an unretained ref evicts it immediately.
func (c *ImageCache) Release(ref string) {
	c.mu.Lock()
	n := c.refs[ref] - 1
	if n > 0 {
		c.refs[ref] = n
		c.mu.Unlock()
		return
	}
	delete(c.refs, ref)
	c.mu.Unlock()

	c.store.Delete(ref)
}

// Flush evicts every bitmap and forgets all reference counts.
func (c *ImageCache) Flush() {
	c.mu.Lock()
	c.refs = make(map[string]int)
	c.mu.Unlock()

	c.store.Flush()
}

// Len is the number of resident bitmaps.
func (c *ImageCache) Len() int {
	return c.store.ItemCount()
}

// Loads counts how many times the loader was invoked.
func (c *ImageCache) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}
