// Package cache keeps parsed worksheets so repeated page loads and score
// requests do not re-parse the stored markup.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pavelanni/worksheet/internal/model"
)

// WorksheetCache stores parsed worksheets by worksheet ID. Get returns nil
// and no error on a miss.
type WorksheetCache interface {
	Get(ctx context.Context, id int64) (*model.ParsedWorksheet, error)
	Set(ctx context.Context, id int64, ws *model.ParsedWorksheet) error
}

type memoryEntry struct {
	ws      *model.ParsedWorksheet
	expires time.Time
}

type memoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]memoryEntry
}

// NewMemory returns an in-process cache. Entries expire after ttl; a ttl of
// zero keeps them for the life of the process. Stored worksheets never change,
// so entries need no invalidation.
func NewMemory(ttl time.Duration) WorksheetCache {
	return &memoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]memoryEntry),
	}
}

func (c *memoryCache) Get(_ context.Context, id int64) (*model.ParsedWorksheet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, id)
		return nil, nil
	}
	return e.ws, nil
}

func (c *memoryCache) Set(_ context.Context, id int64, ws *model.ParsedWorksheet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{ws: ws}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.entries[id] = e
	return nil
}
