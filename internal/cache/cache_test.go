package cache

import (
	"context"
	"testing"
	"time"

	"github.com/pavelanni/worksheet/internal/model"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)

	got, err := c.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected miss, got %+v", got)
	}

	ws := &model.ParsedWorksheet{TotalQuestions: 3}
	if err := c.Set(ctx, 1, ws); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _ = c.Get(ctx, 1)
	if got == nil || got.TotalQuestions != 3 {
		t.Fatalf("expected cached worksheet, got %+v", got)
	}

	if err := c.Set(ctx, 1, &model.ParsedWorksheet{TotalQuestions: 4}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _ = c.Get(ctx, 1)
	if got == nil || got.TotalQuestions != 4 {
		t.Errorf("expected overwritten worksheet, got %+v", got)
	}
	if got, _ := c.Get(ctx, 2); got != nil {
		t.Errorf("expected miss for other id, got %+v", got)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemory(time.Minute).(*memoryCache)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, 7, &model.ParsedWorksheet{}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	now = now.Add(59 * time.Second)
	if got, _ := c.Get(ctx, 7); got == nil {
		t.Fatal("expected entry before ttl")
	}

	now = now.Add(time.Second)
	if got, _ := c.Get(ctx, 7); got != nil {
		t.Fatal("expected entry to expire at ttl")
	}
	if _, ok := c.entries[7]; ok {
		t.Error("expected expired entry to be evicted")
	}
}
