package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/SimonSchneider/goslu/date"
	"github.com/SimonSchneider/pefisim/internal/ledger"
	"github.com/SimonSchneider/pefisim/internal/uncertain"
)

var ErrNotRun = errors.New("simulation has not been run")

// Simulation advances one trial's objects day by day. Objects are updated in
// registration order, so a mover sees whatever an account reached earlier in
// the same day.
type Simulation struct {
	from, to date.Date
	objects  []Object
	ran      bool
}

func NewSimulation(from, to date.Date, objects ...Object) (*Simulation, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("simulation ends %s before it starts %s", to, from)
	}
	return &Simulation{from: from, to: to, objects: objects}, nil
}

func (s *Simulation) Add(objects ...Object) {
	s.objects = append(s.objects, objects...)
}

func (s *Simulation) From() date.Date {
	return s.from
}

func (s *Simulation) To() date.Date {
	return s.to
}

func (s *Simulation) Objects() []Object {
	return s.objects
}

// Holders are the balance-bearing objects in registration order.
func (s *Simulation) Holders() []Holder {
	holders := make([]Holder, 0, len(s.objects))
	for _, o := range s.objects {
		if h, ok := o.(Holder); ok {
			holders = append(holders, h)
		}
	}
	return holders
}

func (s *Simulation) Run(ctx context.Context, ucfg *uncertain.Config, recorder Recorder) error {
	if s.ran {
		return errors.New("simulation already ran")
	}
	env := &Env{Uncertain: ucfg, Recorder: recorder, End: s.to}
	for day := s.from; !day.After(s.to); day = day.Add(date.Day) {
		for _, o := range s.objects {
			if err := o.Update(env, day); err != nil {
				return fmt.Errorf("updating %q on %s: %w", o.Name(), day, err)
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	s.ran = true
	return nil
}

type Column struct {
	Name   string
	Series ledger.Series
}

// Breakdown is one daily, forward-filled column per included holder: the
// ledger balance for accounts and the equity for liabilities.
func (s *Simulation) Breakdown() ([]Column, error) {
	if !s.ran {
		return nil, ErrNotRun
	}
	columns := make([]Column, 0)
	for _, h := range s.Holders() {
		if !h.Included() {
			continue
		}
		var (
			series ledger.Series
			err    error
		)
		switch v := h.(type) {
		case *Liability:
			series, err = v.EquitySeries()
		default:
			var l *ledger.Ledger
			if l, err = h.Ledger(); err == nil {
				series, err = l.History(ledger.ColumnBalance)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("breakdown of %q: %w", h.Name(), err)
		}
		columns = append(columns, Column{Name: h.Name(), Series: series.Fill(s.from, s.to)})
	}
	return columns, nil
}

// NetWorth is the daily sum of the breakdown columns.
func (s *Simulation) NetWorth() (ledger.Series, error) {
	columns, err := s.Breakdown()
	if err != nil {
		return nil, err
	}
	total := ledger.Series(nil).Fill(s.from, s.to)
	for _, c := range columns {
		for i := range total {
			total[i].Value += c.Series[i].Value
		}
	}
	return total, nil
}

func (s *Simulation) FinalNetWorth() (float64, error) {
	nw, err := s.NetWorth()
	if err != nil {
		return 0, err
	}
	return nw.Last().Value, nil
}
