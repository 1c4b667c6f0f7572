package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/sketchmine/internal/sketch"
)

func TestSketchCache_GetSet(t *testing.T) {
	c := NewSketchCache(0)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", sketch.NewBitmap(1, 2))
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2.0, got.Estimate())

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Items)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestSketchCache_Concurrent(t *testing.T) {
	c := NewSketchCache(0)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i%8))
			c.Set(key, sketch.NewBitmap(uint64(i)))
			c.Get(key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, c.Len())
}
