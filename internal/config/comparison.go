package config

import (
	"errors"

	"github.com/ppiankov/sketchmine/internal/model"
)

// Mode names a comparator pipeline
type Mode string

const (
	ModeAuto       Mode = "auto"
	ModeTwoSources Mode = "two_sources"
	ModeOnePivot   Mode = "one_pivot"
	ModeTwoPivots  Mode = "two_pivots"
)

// ErrNoComparison is returned by Resolve when no comparator input is set
var ErrNoComparison = errors.New("no comparison configured")

// Comparison is the resolved comparator mode: TwoSources, OnePivot or TwoPivots
type Comparison interface {
	Mode() Mode
	Options() CompareOptions
	isComparison()
}

// CompareOptions are the settings every comparator mode shares
type CompareOptions struct {
	MinSupportYes    float64
	MinSupportNo     float64
	MaxLevels        int
	IncludeAllLevel1 bool
	ItemSeparator    string
	ExcludedItems    []string
	UseEquiJoin      bool
	FilterItem       string
	OutputJoined     string
	OutputYes        string
	OutputNo         string
}

// TwoSources compares two independently loaded populations
type TwoSources struct {
	CompareOptions
	YesInput string
	NoInput  string
}

// OnePivot splits one population by membership of a pivot item
type OnePivot struct {
	CompareOptions
	Input string
	Pivot string
}

// TwoPivots splits one population by two pivot items
type TwoPivots struct {
	CompareOptions
	Input    string
	PivotYes string
	PivotNo  string
}

func (TwoSources) Mode() Mode { return ModeTwoSources }
func (OnePivot) Mode() Mode   { return ModeOnePivot }
func (TwoPivots) Mode() Mode  { return ModeTwoPivots }

func (c TwoSources) Options() CompareOptions { return c.CompareOptions }
func (c OnePivot) Options() CompareOptions   { return c.CompareOptions }
func (c TwoPivots) Options() CompareOptions  { return c.CompareOptions }

func (TwoSources) isComparison() {}
func (OnePivot) isComparison()   {}
func (TwoPivots) isComparison()  {}

// Resolve selects the comparator mode once. In auto mode the mode follows
// from which inputs are set; setting both a yes/no pair and a single input
// is ambiguous.
func (c CompareConfig) Resolve() (Comparison, error) {
	opts := CompareOptions{
		MinSupportYes:    c.MinSupportYes,
		MinSupportNo:     c.MinSupportNo,
		MaxLevels:        c.MaxLevels,
		IncludeAllLevel1: c.IncludeAllLevel1,
		ItemSeparator:    c.ItemSeparator,
		ExcludedItems:    c.ExcludedItems,
		UseEquiJoin:      c.UseEquiJoin,
		FilterItem:       c.FilterItem,
		OutputJoined:     c.OutputJoined,
		OutputYes:        c.OutputYes,
		OutputNo:         c.OutputNo,
	}

	mode := Mode(c.Mode)
	if mode == "" {
		mode = ModeAuto
	}

	hasPair := c.YesInput != "" || c.NoInput != ""
	hasSingle := c.Input != ""

	if mode == ModeAuto {
		switch {
		case hasPair && hasSingle:
			return nil, model.NewConfigError("compare.mode", "ambiguous: both yes_input/no_input and input are set")
		case hasPair:
			mode = ModeTwoSources
		case hasSingle && c.PivotYes != "" && c.PivotNo != "":
			mode = ModeTwoPivots
		case hasSingle:
			mode = ModeOnePivot
		default:
			return nil, ErrNoComparison
		}
	}

	switch mode {
	case ModeTwoSources:
		if c.YesInput == "" || c.NoInput == "" {
			return nil, model.NewConfigError("compare", "two_sources mode requires yes_input and no_input")
		}
		return TwoSources{CompareOptions: opts, YesInput: c.YesInput, NoInput: c.NoInput}, nil
	case ModeOnePivot:
		if c.Input == "" {
			return nil, model.NewConfigError("compare.input", "one_pivot mode requires input")
		}
		if c.PivotYes == "" {
			return nil, model.NewConfigError("compare.pivot_yes", "one_pivot mode requires pivot_yes")
		}
		if c.PivotNo != "" {
			return nil, model.NewConfigError("compare.pivot_no", "must be empty in one_pivot mode")
		}
		return OnePivot{CompareOptions: opts, Input: c.Input, Pivot: c.PivotYes}, nil
	case ModeTwoPivots:
		if c.Input == "" {
			return nil, model.NewConfigError("compare.input", "two_pivots mode requires input")
		}
		if c.PivotYes == "" || c.PivotNo == "" {
			return nil, model.NewConfigError("compare", "two_pivots mode requires pivot_yes and pivot_no")
		}
		if c.PivotYes == c.PivotNo {
			return nil, model.NewConfigError("compare.pivot_no", "must differ from pivot_yes")
		}
		return TwoPivots{CompareOptions: opts, Input: c.Input, PivotYes: c.PivotYes, PivotNo: c.PivotNo}, nil
	default:
		return nil, model.NewConfigError("compare.mode", "unknown mode %q", c.Mode)
	}
}
