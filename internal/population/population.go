// Package population holds the per-item sketches of one population and
// answers the set queries the miner issues against them.
package population

import (
	"fmt"
	"sort"

	"github.com/ppiankov/sketchmine/internal/cache"
	"github.com/ppiankov/sketchmine/internal/model"
	"github.com/ppiankov/sketchmine/internal/sketch"
)

// Population maps item names to sketches and carries the population total.
// It is read-only once constructed and safe for concurrent queries.
type Population struct {
	name  string
	total sketch.Sketch
	items map[string]sketch.Sketch
	memo  cache.Cache
}

// Option configures a Population
type Option func(*Population)

// WithCache replaces the default intersection memo
func WithCache(c cache.Cache) Option {
	return func(p *Population) {
		p.memo = c
	}
}

// New builds a population. When total is nil the union of all item sketches
// is used as the total.
func New(name string, total sketch.Sketch, items map[string]sketch.Sketch, opts ...Option) (*Population, error) {
	p := &Population{
		name:  name,
		items: make(map[string]sketch.Sketch, len(items)),
	}
	for item, s := range items {
		if err := model.CheckItem(item); err != nil {
			return nil, &model.DataError{Source: name, Item: item, Err: err}
		}
		if s == nil {
			return nil, &model.DataError{Source: name, Item: item, Err: fmt.Errorf("missing sketch")}
		}
		p.items[item] = s
	}

	if total == nil {
		if len(p.items) == 0 {
			return nil, &model.DataError{Source: name, Err: fmt.Errorf("population has no total and no items")}
		}
		union, err := sketch.UnionAll(p.sketchesOf(p.Items())...)
		if err != nil {
			return nil, fmt.Errorf("compute total for %s: %w", name, err)
		}
		total = union
	}
	p.total = total

	for _, opt := range opts {
		opt(p)
	}
	if p.memo == nil {
		p.memo = cache.NewSketchCache(0)
	}
	return p, nil
}

// Name returns the population label used in logs and errors
func (p *Population) Name() string {
	return p.name
}

// Items returns item names sorted ascending
func (p *Population) Items() []string {
	items := make([]string, 0, len(p.items))
	for item := range p.items {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

// Len returns the number of items
func (p *Population) Len() int {
	return len(p.items)
}

// Has reports whether item is present
func (p *Population) Has(item string) bool {
	_, ok := p.items[item]
	return ok
}

// Sketch returns the sketch for item or a DataError naming it
func (p *Population) Sketch(item string) (sketch.Sketch, error) {
	s, ok := p.items[item]
	if !ok {
		return nil, p.missing(item)
	}
	return s, nil
}

// Total returns the total sketch
func (p *Population) Total() sketch.Sketch {
	return p.total
}

// TotalEstimate returns the estimated population size
func (p *Population) TotalEstimate() float64 {
	return p.total.Estimate()
}

// Estimate returns the estimated count of one item
func (p *Population) Estimate(item string) (float64, error) {
	s, err := p.Sketch(item)
	if err != nil {
		return 0, err
	}
	return s.Estimate(), nil
}

// Union returns the union of the named items
func (p *Population) Union(items ...string) (sketch.Sketch, error) {
	sketches, err := p.lookup(items)
	if err != nil {
		return nil, err
	}
	return sketch.UnionAll(sketches...)
}

// Intersect returns the intersection of the named items
func (p *Population) Intersect(items ...string) (sketch.Sketch, error) {
	sketches, err := p.lookup(items)
	if err != nil {
		return nil, err
	}
	return sketch.IntersectAll(sketches...)
}

// Subtract returns members of a that are not members of b
func (p *Population) Subtract(a, b string) (sketch.Sketch, error) {
	sa, err := p.Sketch(a)
	if err != nil {
		return nil, err
	}
	sb, err := p.Sketch(b)
	if err != nil {
		return nil, err
	}
	return sa.Subtract(sb)
}

// IntersectEstimate returns the estimated count of members holding every
// item of the itemset. Intersections are memoized by itemset so that a
// level-k query reuses its level-(k-1) prefix.
func (p *Population) IntersectEstimate(itemset model.Itemset) (float64, error) {
	s, err := p.intersection(itemset)
	if err != nil {
		return 0, err
	}
	return s.Estimate(), nil
}

func (p *Population) intersection(itemset model.Itemset) (sketch.Sketch, error) {
	if len(itemset) == 0 {
		return p.total, nil
	}
	if len(itemset) == 1 {
		s, ok := p.items[itemset[0]]
		if !ok {
			return nil, &model.InvariantError{Detail: fmt.Sprintf("population %s has no item %q", p.name, itemset[0])}
		}
		return s, nil
	}

	key := itemset.Key()
	if s, ok := p.memo.Get(key); ok {
		return s, nil
	}

	last := itemset[len(itemset)-1]
	lastSketch, ok := p.items[last]
	if !ok {
		return nil, &model.InvariantError{Detail: fmt.Sprintf("population %s has no item %q", p.name, last)}
	}
	prefix, err := p.intersection(itemset[:len(itemset)-1])
	if err != nil {
		return nil, err
	}
	s, err := prefix.Intersect(lastSketch)
	if err != nil {
		return nil, fmt.Errorf("intersect %v: %w", []string(itemset), err)
	}
	p.memo.Set(key, s)
	return s, nil
}

// CacheLen returns the number of memoized intersections
func (p *Population) CacheLen() int {
	return p.memo.Len()
}

func (p *Population) lookup(items []string) ([]sketch.Sketch, error) {
	out := make([]sketch.Sketch, 0, len(items))
	for _, item := range items {
		s, err := p.Sketch(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (p *Population) sketchesOf(items []string) []sketch.Sketch {
	out := make([]sketch.Sketch, len(items))
	for i, item := range items {
		out[i] = p.items[item]
	}
	return out
}

func (p *Population) missing(item string) error {
	return &model.DataError{Source: p.name, Item: item, Err: fmt.Errorf("item not found in population")}
}

// Renamed returns a view of the population under another name. Sketches and
// the intersection memo are shared.
func (p *Population) Renamed(name string) *Population {
	clone := *p
	clone.name = name
	return &clone
}
