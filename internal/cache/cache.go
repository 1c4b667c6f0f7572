package cache

import (
	"time"

	"github.com/ppiankov/sketchmine/internal/sketch"
)

// Cache stores intermediate sketches by key
type Cache interface {
	Get(key string) (sketch.Sketch, bool)
	Set(key string, s sketch.Sketch)
	Len() int
	Clear()
}

// Stats reports cache effectiveness
type Stats struct {
	Hits   int64
	Misses int64
	Items  int
}

// DefaultCleanupInterval is used when sketches are given a finite TTL
const DefaultCleanupInterval = 10 * time.Minute
