// Package sketch defines the cardinality summary used by the miner and the
// codec that creates and decodes summaries of one kind.
package sketch

import (
	"errors"
	"fmt"
)

const (
	// KindBitmap is the roaring bitmap sketch
	KindBitmap = "bitmap"

	// MinLgK and MaxLgK bound the log2 accuracy parameter
	MinLgK = 4
	MaxLgK = 26
	// DefaultLgK is the sketch size used when none is configured
	DefaultLgK = 12
)

var (
	// ErrIncompatible is returned when sketches of different kinds are combined
	ErrIncompatible = errors.New("incompatible sketch kinds")
	// ErrUnknownKind is returned for an unsupported sketch kind
	ErrUnknownKind = errors.New("unknown sketch kind")
	// ErrEmptySet is returned when a fold receives no sketches
	ErrEmptySet = errors.New("no sketches to combine")
)

// Sketch is a duplicate-insensitive summary of a member set.
// Set operations never modify their operands.
type Sketch interface {
	Kind() string
	Union(other Sketch) (Sketch, error)
	Intersect(other Sketch) (Sketch, error)
	Subtract(other Sketch) (Sketch, error)
	Estimate() float64
	MarshalBinary() ([]byte, error)
}

// Builder accumulates member identifiers into a new sketch
type Builder interface {
	Add(id uint64)
	AddString(id string)
	Sketch() Sketch
}

// Codec creates and decodes sketches of a single kind
type Codec interface {
	Kind() string
	LgK() int
	NewBuilder() Builder
	Decode(data []byte) (Sketch, error)
}

// NewCodec returns the codec for kind. lgK is validated for every kind.
func NewCodec(kind string, lgK int) (Codec, error) {
	if lgK < MinLgK || lgK > MaxLgK {
		return nil, fmt.Errorf("lg_k %d out of range [%d, %d]", lgK, MinLgK, MaxLgK)
	}
	switch kind {
	case KindBitmap, "":
		return &BitmapCodec{lgK: lgK}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// UnionAll folds Union over sketches
func UnionAll(sketches ...Sketch) (Sketch, error) {
	return fold(sketches, Sketch.Union)
}

// IntersectAll folds Intersect over sketches
func IntersectAll(sketches ...Sketch) (Sketch, error) {
	return fold(sketches, Sketch.Intersect)
}

func fold(sketches []Sketch, op func(Sketch, Sketch) (Sketch, error)) (Sketch, error) {
	if len(sketches) == 0 {
		return nil, ErrEmptySet
	}
	acc := sketches[0]
	for _, s := range sketches[1:] {
		next, err := op(acc, s)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return acc, nil
}
