package population

import (
	"fmt"

	"github.com/ppiankov/sketchmine/internal/model"
	"github.com/ppiankov/sketchmine/internal/sketch"
)

// Without returns a population with the named items removed. Names that are
// not present are ignored. The total is kept.
func (p *Population) Without(items ...string) (*Population, error) {
	drop := make(map[string]bool, len(items))
	for _, item := range items {
		drop[item] = true
	}
	kept := make(map[string]sketch.Sketch, len(p.items))
	for item, s := range p.items {
		if !drop[item] {
			kept[item] = s
		}
	}
	return New(p.name, p.total, kept)
}

// FilterBy restricts the population to members of item. Every other item is
// intersected with the filter sketch, which becomes the new total; the filter
// item itself is dropped.
func (p *Population) FilterBy(item string) (*Population, error) {
	filter, err := p.Sketch(item)
	if err != nil {
		return nil, fmt.Errorf("filter item: %w", err)
	}
	items, err := p.transform(func(s sketch.Sketch) (sketch.Sketch, error) {
		return s.Intersect(filter)
	}, item)
	if err != nil {
		return nil, err
	}
	return New(p.name, filter, items)
}

// SplitByPivot derives yes/no populations from one pivot item. The yes side
// intersects every item with the pivot and takes the pivot as its total. The
// no side subtracts the pivot from every item and recomputes its total as the
// union of the resulting sketches.
func (p *Population) SplitByPivot(pivot string) (yes, no *Population, err error) {
	pivotSketch, err := p.Sketch(pivot)
	if err != nil {
		return nil, nil, fmt.Errorf("pivot item: %w", err)
	}

	yesItems, err := p.transform(func(s sketch.Sketch) (sketch.Sketch, error) {
		return s.Intersect(pivotSketch)
	}, pivot)
	if err != nil {
		return nil, nil, err
	}
	noItems, err := p.transform(func(s sketch.Sketch) (sketch.Sketch, error) {
		return s.Subtract(pivotSketch)
	}, pivot)
	if err != nil {
		return nil, nil, err
	}

	var noTotal sketch.Sketch
	if len(noItems) == 0 {
		if noTotal, err = pivotSketch.Subtract(pivotSketch); err != nil {
			return nil, nil, err
		}
	} else {
		noPop, err := New(p.name+"/no", nil, noItems)
		if err != nil {
			return nil, nil, err
		}
		noTotal = noPop.Total()
	}

	if yes, err = New(p.name+"/yes", pivotSketch, yesItems); err != nil {
		return nil, nil, err
	}
	if no, err = New(p.name+"/no", noTotal, noItems); err != nil {
		return nil, nil, err
	}
	return yes, no, nil
}

// SplitByPivots derives yes/no populations by intersecting every item with
// yesPivot and noPivot respectively. Each pivot is the total of its side and
// both pivots are dropped from both sides.
func (p *Population) SplitByPivots(yesPivot, noPivot string) (yes, no *Population, err error) {
	if yesPivot == noPivot {
		return nil, nil, model.NewConfigError("compare.pivot_no", "must differ from pivot_yes (%q)", yesPivot)
	}
	yesSketch, err := p.Sketch(yesPivot)
	if err != nil {
		return nil, nil, fmt.Errorf("yes pivot: %w", err)
	}
	noSketch, err := p.Sketch(noPivot)
	if err != nil {
		return nil, nil, fmt.Errorf("no pivot: %w", err)
	}

	yesItems, err := p.transform(func(s sketch.Sketch) (sketch.Sketch, error) {
		return s.Intersect(yesSketch)
	}, yesPivot, noPivot)
	if err != nil {
		return nil, nil, err
	}
	noItems, err := p.transform(func(s sketch.Sketch) (sketch.Sketch, error) {
		return s.Intersect(noSketch)
	}, yesPivot, noPivot)
	if err != nil {
		return nil, nil, err
	}

	if yes, err = New(p.name+"/yes", yesSketch, yesItems); err != nil {
		return nil, nil, err
	}
	if no, err = New(p.name+"/no", noSketch, noItems); err != nil {
		return nil, nil, err
	}
	return yes, no, nil
}

func (p *Population) transform(fn func(sketch.Sketch) (sketch.Sketch, error), skip ...string) (map[string]sketch.Sketch, error) {
	skipped := make(map[string]bool, len(skip))
	for _, item := range skip {
		skipped[item] = true
	}
	out := make(map[string]sketch.Sketch, len(p.items))
	for item, s := range p.items {
		if skipped[item] {
			continue
		}
		derived, err := fn(s)
		if err != nil {
			return nil, &model.DataError{Source: p.name, Item: item, Err: err}
		}
		out[item] = derived
	}
	return out, nil
}
