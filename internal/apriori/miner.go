package apriori

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/sketchmine/internal/logging"
	"github.com/ppiankov/sketchmine/internal/model"
	"github.com/ppiankov/sketchmine/internal/population"
	"github.com/ppiankov/sketchmine/internal/worker"
)

// DefaultMaxLevel bounds the search when no maximum level is configured
const DefaultMaxLevel = 8

// LevelStats summarizes one mined level
type LevelStats struct {
	Population string
	Level      int
	Candidates int
	Retained   int
	Output     int
	Duration   time.Duration
}

// Observer receives per-level statistics, e.g. for metrics
type Observer interface {
	ObserveLevel(stats LevelStats)
}

// Miner runs the level-wise Apriori search against a population
type Miner struct {
	MinSupport       float64
	MaxLevel         int
	IncludeAllLevel1 bool
	Workers          int
	Logger           *slog.Logger
	Observer         Observer

	// generate replaces GenerateCandidates in tests
	generate func(retained []model.Itemset) []model.Itemset
}

// Validate checks the mining thresholds
func (m *Miner) Validate() error {
	if m.MinSupport < 0 || m.MinSupport > 1 {
		return model.NewConfigError("min_support", "must be in [0, 1], got %g", m.MinSupport)
	}
	if m.MaxLevel < 1 {
		return model.NewConfigError("max_levels", "must be at least 1, got %d", m.MaxLevel)
	}
	return nil
}

// candidateJob estimates the count of one candidate itemset
type candidateJob struct {
	pop       *population.Population
	candidate model.Itemset
}

type candidateResult struct {
	candidate model.Itemset
	count     float64
	err       error
}

func (r *candidateResult) GetError() error {
	return r.err
}

func (j *candidateJob) Execute(ctx context.Context) worker.Result {
	count, err := j.pop.IntersectEstimate(j.candidate)
	return &candidateResult{candidate: j.candidate, count: count, err: err}
}

// Mine returns every itemset whose support reaches MinSupport, up to MaxLevel.
// Level 1 lists all items when IncludeAllLevel1 is set but only frequent
// items seed the higher levels.
func (m *Miner) Mine(ctx context.Context, pop *population.Population) (*model.ItemsetTable, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	logger := logging.OrDiscard(m.Logger).With("population", pop.Name())

	total := pop.TotalEstimate()
	table := model.NewItemsetTable(total)
	if total == 0 {
		logger.Warn("population total is zero, nothing to mine")
		return table, nil
	}

	start := time.Now()
	items := pop.Items()
	var processing []model.Itemset
	for _, item := range items {
		count, err := pop.Estimate(item)
		if err != nil {
			return nil, err
		}
		itemset := model.Itemset{item}
		frequent := count/total >= m.MinSupport
		if frequent {
			processing = append(processing, itemset)
		}
		if frequent || m.IncludeAllLevel1 {
			table.Set(itemset, count)
		}
	}
	m.report(logger, LevelStats{
		Population: pop.Name(),
		Level:      1,
		Candidates: len(items),
		Retained:   len(processing),
		Output:     table.LevelLen(1),
		Duration:   time.Since(start),
	})

	generate := m.generate
	if generate == nil {
		generate = GenerateCandidates
	}

	batch := worker.NewBatchProcessor(m.Workers)
	for k := 2; k <= m.MaxLevel && len(processing) > 0; k++ {
		start = time.Now()
		candidates := generate(processing)
		if len(candidates) == 0 {
			logger.Debug("no candidates", "itemset_size", k)
			break
		}

		jobs := make([]worker.Job, len(candidates))
		for i, candidate := range candidates {
			jobs[i] = &candidateJob{pop: pop, candidate: candidate}
		}
		results := batch.Process(ctx, jobs)
		if err := worker.FirstError(ctx, results); err != nil {
			return nil, fmt.Errorf("level %d: %w", k, err)
		}

		// single writer: only this goroutine touches the table
		var retained []model.Itemset
		for _, r := range results {
			res := r.(*candidateResult)
			if res.count/total >= m.MinSupport {
				table.Set(res.candidate, res.count)
				retained = append(retained, res.candidate)
			}
		}

		m.report(logger, LevelStats{
			Population: pop.Name(),
			Level:      k,
			Candidates: len(candidates),
			Retained:   len(retained),
			Output:     len(retained),
			Duration:   time.Since(start),
		})
		processing = retained
	}

	logger.Info("mining complete", "total", total, "itemsets", table.Len(), "levels", len(table.Levels()))
	return table, nil
}

func (m *Miner) report(logger *slog.Logger, stats LevelStats) {
	logger.Info("level mined",
		"itemset_size", stats.Level,
		"candidates", stats.Candidates,
		"retained", stats.Retained,
		"output", stats.Output,
		"duration", stats.Duration,
	)
	if m.Observer != nil {
		m.Observer.ObserveLevel(stats)
	}
}
