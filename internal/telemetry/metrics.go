// Package telemetry collects run metrics on a private Prometheus registry and
// exports them as a node-exporter textfile at the end of a batch run.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiankov/sketchmine/internal/apriori"
)

// Metrics holds the collectors of one process
type Metrics struct {
	registry *prometheus.Registry

	candidates    *prometheus.CounterVec
	retained      *prometheus.GaugeVec
	levelDuration *prometheus.HistogramVec
	rules         prometheus.Counter
	rows          *prometheus.GaugeVec
	stageDuration *prometheus.HistogramVec
	populationN   *prometheus.GaugeVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// candidates counts candidate itemsets evaluated per population and level
		candidates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sketchmine_candidates_total",
			Help: "Candidate itemsets evaluated by population and level",
		}, []string{"population", "level"}),

		retained: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sketchmine_frequent_itemsets",
			Help: "Frequent itemsets retained by population and level",
		}, []string{"population", "level"}),

		levelDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sketchmine_level_duration_seconds",
			Help:    "Time spent mining one level",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
		}, []string{"population"}),

		rules: factory.NewCounter(prometheus.CounterOpts{
			Name: "sketchmine_rules_total",
			Help: "Association rules emitted",
		}),

		rows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sketchmine_comparison_rows",
			Help: "Rows in the comparison report by presence",
		}, []string{"presence"}),

		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sketchmine_stage_duration_seconds",
			Help:    "Wall time of pipeline stages",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),

		populationN: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sketchmine_population_total",
			Help: "Estimated population size",
		}, []string{"population"}),
	}
}

// Registry exposes the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveLevel implements apriori.Observer
func (m *Metrics) ObserveLevel(stats apriori.LevelStats) {
	level := strconv.Itoa(stats.Level)
	m.candidates.WithLabelValues(stats.Population, level).Add(float64(stats.Candidates))
	m.retained.WithLabelValues(stats.Population, level).Set(float64(stats.Retained))
	m.levelDuration.WithLabelValues(stats.Population).Observe(stats.Duration.Seconds())
}

// ObservePopulation records the estimated total of a population
func (m *Metrics) ObservePopulation(name string, total float64) {
	m.populationN.WithLabelValues(name).Set(total)
}

// AddRules counts emitted rules
func (m *Metrics) AddRules(n int) {
	m.rules.Add(float64(n))
}

// SetComparisonRows records report rows split by side presence
func (m *Metrics) SetComparisonRows(both, yesOnly, noOnly int) {
	m.rows.WithLabelValues("both").Set(float64(both))
	m.rows.WithLabelValues("yes_only").Set(float64(yesOnly))
	m.rows.WithLabelValues("no_only").Set(float64(noOnly))
}

// Stage starts timing a named stage; call the returned func when it ends
func (m *Metrics) Stage(name string) func() {
	start := time.Now()
	return func() {
		m.stageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

// WriteTextfile writes all metrics in text exposition format to path
func (m *Metrics) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
