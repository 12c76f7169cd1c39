package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemory_SetGet(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Minute)

	got, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestMemory_Miss(t *testing.T) {
	c := NewMemory()
	_, ok := c.Get(context.Background(), "absent")
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", []byte("v"), 30*time.Second)

	_, ok := c.Get(ctx, "k")
	assert.True(t, ok, "entry should be live before TTL")

	now = now.Add(31 * time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok, "entry should expire after TTL")
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", []byte("v"), 0)

	now = now.Add(365 * 24 * time.Hour)
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)
}
