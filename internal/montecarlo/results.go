package montecarlo

import (
	"math"
	"sort"
	"sync"

	"github.com/SimonSchneider/pefisim/internal/ledger"
)

// Failure is a trial that could not be built or run.
type Failure struct {
	Trial    int
	Scenario string
	Err      error
}

// Table is one row per trial and one column per scenario, in scenario order.
// Failed trials hold NaN.
type Table struct {
	Columns []string
	Rows    [][]float64
}

// Column returns the values of the named column, nil if it does not exist.
func (t Table) Column(name string) []float64 {
	for j, c := range t.Columns {
		if c != name {
			continue
		}
		values := make([]float64, len(t.Rows))
		for i, row := range t.Rows {
			values[i] = row[j]
		}
		return values
	}
	return nil
}

// Results is the concurrent sink every worker appends to.
type Results struct {
	mu        sync.Mutex
	scenarios []string
	values    map[string][]float64
	series    map[string]map[int]ledger.Series
	declines  map[string]int
	failures  []Failure
}

func newResults(scenarios []string, trials int) *Results {
	r := &Results{
		scenarios: scenarios,
		values:    make(map[string][]float64, len(scenarios)),
		series:    make(map[string]map[int]ledger.Series, len(scenarios)),
		declines:  make(map[string]int, len(scenarios)),
	}
	for _, s := range scenarios {
		vs := make([]float64, trials)
		for i := range vs {
			vs[i] = math.NaN()
		}
		r.values[s] = vs
		r.series[s] = make(map[int]ledger.Series)
	}
	return r
}

type outcome struct {
	trial    int
	scenario string
	final    float64
	series   ledger.Series
	declines int
	err      error
}

func (r *Results) add(o outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.err != nil {
		r.failures = append(r.failures, Failure{Trial: o.trial, Scenario: o.scenario, Err: o.err})
		return
	}
	r.values[o.scenario][o.trial] = o.final
	r.declines[o.scenario] += o.declines
	if o.series != nil {
		r.series[o.scenario][o.trial] = o.series
	}
}

func (r *Results) Scenarios() []string {
	return append([]string(nil), r.scenarios...)
}

func (r *Results) Table() Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := Table{Columns: append([]string(nil), r.scenarios...)}
	if len(r.scenarios) == 0 {
		return t
	}
	trials := len(r.values[r.scenarios[0]])
	t.Rows = make([][]float64, trials)
	for i := range t.Rows {
		row := make([]float64, len(r.scenarios))
		for j, s := range r.scenarios {
			row[j] = r.values[s][i]
		}
		t.Rows[i] = row
	}
	return t
}

// Failures are sorted by trial, then scenario.
func (r *Results) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	fs := append([]Failure(nil), r.failures...)
	sort.Slice(fs, func(i, j int) bool {
		if fs[i].Trial != fs[j].Trial {
			return fs[i].Trial < fs[j].Trial
		}
		return fs[i].Scenario < fs[j].Scenario
	})
	return fs
}

// Series returns the kept net-worth series of a scenario in trial order.
func (r *Results) Series(scenario string) []ledger.Series {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.series[scenario]
	trials := make([]int, 0, len(kept))
	for t := range kept {
		trials = append(trials, t)
	}
	sort.Ints(trials)
	out := make([]ledger.Series, len(trials))
	for i, t := range trials {
		out[i] = kept[t]
	}
	return out
}

// Declines is the number of movements skipped for insufficient funds over all
// successful trials of a scenario.
func (r *Results) Declines(scenario string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.declines[scenario]
}
