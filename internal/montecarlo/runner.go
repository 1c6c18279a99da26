// Package montecarlo runs independent simulation trials on a worker pool.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/SimonSchneider/pefisim/internal/finance"
	"github.com/SimonSchneider/pefisim/internal/ledger"
	"github.com/SimonSchneider/pefisim/internal/uncertain"
	"golang.org/x/sync/errgroup"
)

// Scenario builds a fresh simulation for one trial. Build must not share
// objects between calls.
type Scenario struct {
	Name  string
	Build func(ucfg *uncertain.Config) (*finance.Simulation, error)
}

type Runner struct {
	Trials  int
	Workers int
	Seed    int64
	// KeepSeries is the number of leading trials whose daily net worth is kept.
	KeepSeries int
	// Recorder, if set, is shared by all trials and must be safe for concurrent use.
	Recorder finance.Recorder
	// Progress is called after every completed trial.
	Progress func(done, total int)
}

func (r Runner) Run(ctx context.Context, scenarios ...Scenario) (*Results, error) {
	if r.Trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", r.Trials)
	}
	if len(scenarios) == 0 {
		return nil, errors.New("no scenarios to run")
	}
	names := make([]string, len(scenarios))
	seen := make(map[string]bool, len(scenarios))
	for i, s := range scenarios {
		if s.Name == "" || seen[s.Name] {
			return nil, fmt.Errorf("scenario %d: name %q is empty or duplicated", i, s.Name)
		}
		seen[s.Name] = true
		names[i] = s.Name
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := newResults(names, r.Trials)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for trial := range r.Trials {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			for j, s := range scenarios {
				o := r.runTrial(gctx, trial, j, s)
				if o.err != nil && gctx.Err() != nil {
					return gctx.Err()
				}
				results.add(o)
			}
			if r.Progress != nil {
				r.Progress(int(done.Add(1)), r.Trials)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

func (r Runner) runTrial(ctx context.Context, trial, scenario int, s Scenario) outcome {
	o := outcome{trial: trial, scenario: s.Name}
	ucfg := uncertain.NewConfig(TrialSeed(r.Seed, trial, scenario))
	sim, err := s.Build(ucfg)
	if err != nil {
		o.err = fmt.Errorf("building trial %d of %q: %w", trial, s.Name, err)
		return o
	}
	counter := &declineCounter{next: r.Recorder}
	if err := sim.Run(ctx, ucfg, counter); err != nil {
		o.err = fmt.Errorf("running trial %d of %q: %w", trial, s.Name, err)
		return o
	}
	var nw ledger.Series
	if nw, err = sim.NetWorth(); err != nil {
		o.err = fmt.Errorf("net worth of trial %d of %q: %w", trial, s.Name, err)
		return o
	}
	o.final = nw.Last().Value
	o.declines = counter.n
	if trial < r.KeepSeries {
		o.series = nw
	}
	return o
}

// TrialSeed derives an independent seed per (trial, scenario) with a
// splitmix64 finalizer.
func TrialSeed(seed int64, trial, scenario int) int64 {
	z := uint64(seed) + uint64(trial)*0x9e3779b97f4a7c15 + uint64(scenario)*0xd1b54a32d192ed03
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}

// declineCounter counts declines of one trial and forwards everything.
type declineCounter struct {
	n    int
	next finance.Recorder
}

func (c *declineCounter) OnMovement(m finance.Movement) error {
	if c.next == nil {
		return nil
	}
	return c.next.OnMovement(m)
}

func (c *declineCounter) OnDecline(m finance.Movement) error {
	c.n++
	if c.next == nil {
		return nil
	}
	return c.next.OnDecline(m)
}
