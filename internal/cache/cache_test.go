package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := New[string](5 * time.Second)
	c.now = func() time.Time { return now }

	c.Set("disk5s1", "Scratch")
	v, ok := c.Get("disk5s1")
	assert.True(t, ok)
	assert.Equal(t, "Scratch", v)

	now = now.Add(6 * time.Second)
	_, ok = c.Get("disk5s1")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Cleanup()
	assert.Equal(t, 0, c.Len())
}

func TestRetainAndDelete(t *testing.T) {
	c := New[int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	c.Retain(map[string]bool{"a": true, "c": true})
	assert.Equal(t, 2, c.Len())

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestZeroTTLDisables(t *testing.T) {
	c := New[int](0)
	c.Set("a", 1)
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}
