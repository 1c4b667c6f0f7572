package sketch

import (
	"fmt"
	"hash/fnv"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// BitmapCodec produces exact sketches backed by 64-bit roaring bitmaps.
// The lg_k parameter is recorded for configuration parity only.
type BitmapCodec struct {
	lgK int
}

// Kind returns KindBitmap
func (c *BitmapCodec) Kind() string { return KindBitmap }

// LgK returns the configured accuracy parameter
func (c *BitmapCodec) LgK() int { return c.lgK }

// NewBuilder returns an empty bitmap builder
func (c *BitmapCodec) NewBuilder() Builder {
	return &bitmapBuilder{bm: roaring64.New()}
}

// Decode parses the roaring portable serialization
func (c *BitmapCodec) Decode(data []byte) (Sketch, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode bitmap: empty payload")
	}
	bm := roaring64.New()
	if err := bm.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("decode bitmap: %w", err)
	}
	return &Bitmap{bm: bm}, nil
}

type bitmapBuilder struct {
	bm *roaring64.Bitmap
}

func (b *bitmapBuilder) Add(id uint64) {
	b.bm.Add(id)
}

func (b *bitmapBuilder) AddString(id string) {
	b.bm.Add(HashString(id))
}

func (b *bitmapBuilder) Sketch() Sketch {
	return &Bitmap{bm: b.bm.Clone()}
}

// HashString maps a string identifier to a 64-bit member id (FNV-1a)
func HashString(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

// Bitmap is an immutable sketch over a roaring64 bitmap
type Bitmap struct {
	bm *roaring64.Bitmap
}

// NewBitmap builds a bitmap sketch from member ids
func NewBitmap(ids ...uint64) *Bitmap {
	bm := roaring64.New()
	bm.AddMany(ids)
	return &Bitmap{bm: bm}
}

// Kind returns KindBitmap
func (b *Bitmap) Kind() string { return KindBitmap }

// Union returns members of either sketch
func (b *Bitmap) Union(other Sketch) (Sketch, error) {
	o, err := asBitmap(other)
	if err != nil {
		return nil, err
	}
	return &Bitmap{bm: roaring64.Or(b.bm, o.bm)}, nil
}

// Intersect returns members of both sketches
func (b *Bitmap) Intersect(other Sketch) (Sketch, error) {
	o, err := asBitmap(other)
	if err != nil {
		return nil, err
	}
	return &Bitmap{bm: roaring64.And(b.bm, o.bm)}, nil
}

// Subtract returns members of b that are not in other
func (b *Bitmap) Subtract(other Sketch) (Sketch, error) {
	o, err := asBitmap(other)
	if err != nil {
		return nil, err
	}
	return &Bitmap{bm: roaring64.AndNot(b.bm, o.bm)}, nil
}

// Estimate returns the exact cardinality
func (b *Bitmap) Estimate() float64 {
	return float64(b.bm.GetCardinality())
}

// MarshalBinary returns the roaring portable serialization
func (b *Bitmap) MarshalBinary() ([]byte, error) {
	return b.bm.ToBytes()
}

func asBitmap(s Sketch) (*Bitmap, error) {
	b, ok := s.(*Bitmap)
	if !ok || b == nil {
		kind := "<nil>"
		if s != nil {
			kind = s.Kind()
		}
		return nil, fmt.Errorf("%w: %s and %s", ErrIncompatible, KindBitmap, kind)
	}
	return b, nil
}
