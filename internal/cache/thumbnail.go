// Package cache holds rendered page thumbnails in memory.
package cache

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Thumbnails caches rendered thumbnails keyed by image path and width.
type Thumbnails struct {
	cache *gocache.Cache
}

// NewThumbnails creates a cache whose entries expire after ttl.
func NewThumbnails(ttl time.Duration) *Thumbnails {
	return &Thumbnails{cache: gocache.New(ttl, 2*ttl)}
}

func key(imagePath string, width int) string {
	return fmt.Sprintf("%s@%d", imagePath, width)
}

// Get returns the cached thumbnail for an image at width.
func (c *Thumbnails) Get(imagePath string, width int) ([]byte, bool) {
	if val, found := c.cache.Get(key(imagePath, width)); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a thumbnail with the default expiry.
func (c *Thumbnails) Set(imagePath string, width int, data []byte) {
	c.cache.SetDefault(key(imagePath, width), data)
}

// Len returns the number of cached thumbnails, including expired ones not
// yet cleaned up.
func (c *Thumbnails) Len() int {
	return c.cache.ItemCount()
}

// Clear removes all thumbnails.
func (c *Thumbnails) Clear() {
	c.cache.Flush()
}
