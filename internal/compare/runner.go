package compare

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/sketchmine/internal/apriori"
	"github.com/ppiankov/sketchmine/internal/config"
	"github.com/ppiankov/sketchmine/internal/logging"
	"github.com/ppiankov/sketchmine/internal/model"
	"github.com/ppiankov/sketchmine/internal/population"
)

// Loader resolves a source reference to a population
type Loader func(ctx context.Context, ref string) (*population.Population, error)

// Result holds both mined tables and the joined rows
type Result struct {
	Mode     config.Mode
	Yes      *model.ItemsetTable
	No       *model.ItemsetTable
	Rows     []model.ComparisonRow
	Duration time.Duration
}

// Runner executes one comparison. It writes nothing; callers persist Result.
type Runner struct {
	Load     Loader
	Workers  int
	Logger   *slog.Logger
	Observer apriori.Observer
}

// Run loads, prepares, mines and joins the two populations of cmp
func (r *Runner) Run(ctx context.Context, cmp config.Comparison) (*Result, error) {
	if cmp == nil {
		return nil, model.NewConfigError("compare", "no comparison inputs configured")
	}
	if r.Load == nil {
		return nil, fmt.Errorf("compare runner has no loader")
	}
	logger := logging.OrDiscard(r.Logger).With("mode", string(cmp.Mode()))
	opts := cmp.Options()
	start := time.Now()

	yes, no, err := r.populations(ctx, cmp, logger)
	if err != nil {
		return nil, err
	}
	yes, no = yes.Renamed("yes"), no.Renamed("no")
	logger.Info("populations ready",
		"yes_items", yes.Len(), "yes_total", yes.TotalEstimate(),
		"no_items", no.Len(), "no_total", no.TotalEstimate(),
	)

	var yesTable, noTable *model.ItemsetTable
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		table, err := r.miner(opts.MinSupportYes, opts).Mine(gctx, yes)
		if err != nil {
			return fmt.Errorf("mine yes: %w", err)
		}
		yesTable = table
		return nil
	})
	g.Go(func() error {
		table, err := r.miner(opts.MinSupportNo, opts).Mine(gctx, no)
		if err != nil {
			return fmt.Errorf("mine no: %w", err)
		}
		noTable = table
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := Join(yesTable, noTable, JoinOptions{EquiJoin: opts.UseEquiJoin})
	both, yesOnly, noOnly := Presence(rows)
	logger.Info("comparison joined",
		"rows", len(rows), "both", both, "yes_only", yesOnly, "no_only", noOnly,
		"equi_join", opts.UseEquiJoin,
	)

	return &Result{
		Mode:     cmp.Mode(),
		Yes:      yesTable,
		No:       noTable,
		Rows:     rows,
		Duration: time.Since(start),
	}, nil
}

func (r *Runner) miner(minSupport float64, opts config.CompareOptions) *apriori.Miner {
	return &apriori.Miner{
		MinSupport:       minSupport,
		MaxLevel:         opts.MaxLevels,
		IncludeAllLevel1: opts.IncludeAllLevel1,
		Workers:          r.Workers,
		Logger:           r.Logger,
		Observer:         r.Observer,
	}
}

// populations derives the yes and no populations for the configured mode.
// Exclusions apply first, then the filter item, then the split.
func (r *Runner) populations(ctx context.Context, cmp config.Comparison, logger *slog.Logger) (yes, no *population.Population, err error) {
	opts := cmp.Options()

	switch c := cmp.(type) {
	case config.TwoSources:
		var g errgroup.Group
		g.Go(func() error {
			pop, err := r.prepare(ctx, c.YesInput, opts)
			yes = pop
			return err
		})
		g.Go(func() error {
			pop, err := r.prepare(ctx, c.NoInput, opts)
			no = pop
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
		return yes, no, nil

	case config.OnePivot:
		pop, err := r.prepare(ctx, c.Input, opts)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("splitting by pivot", "pivot", c.Pivot)
		return pop.SplitByPivot(c.Pivot)

	case config.TwoPivots:
		pop, err := r.prepare(ctx, c.Input, opts)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("splitting by pivots", "pivot_yes", c.PivotYes, "pivot_no", c.PivotNo)
		return pop.SplitByPivots(c.PivotYes, c.PivotNo)

	default:
		return nil, nil, model.NewConfigError("compare.mode", "unsupported mode %q", cmp.Mode())
	}
}

// prepare loads a source and applies the exclusion list and the filter item
func (r *Runner) prepare(ctx context.Context, ref string, opts config.CompareOptions) (*population.Population, error) {
	pop, err := r.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if len(opts.ExcludedItems) > 0 {
		if pop, err = pop.Without(opts.ExcludedItems...); err != nil {
			return nil, err
		}
	}
	if opts.FilterItem != "" {
		if pop, err = pop.FilterBy(opts.FilterItem); err != nil {
			return nil, err
		}
	}
	return pop, nil
}
