package finance

import (
	"errors"
	"fmt"
	"sort"

	"github.com/SimonSchneider/goslu/date"
	"github.com/SimonSchneider/pefisim/internal/schedule"
	"github.com/SimonSchneider/pefisim/internal/uncertain"
)

var ErrAmountMode = errors.New("amount does not match revenue mode")

type AmountMode string

const (
	AmountSimple       AmountMode = "simple"
	AmountDistribution AmountMode = "distribution"
	AmountTable        AmountMode = "table"
)

func ParseAmountMode(s string) (AmountMode, error) {
	switch m := AmountMode(s); m {
	case "":
		return AmountSimple, nil
	case AmountSimple, AmountDistribution, AmountTable:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported revenue mode %q: %w", s, ErrAmountMode)
	}
}

type RevenueOptions struct {
	Name   string
	Target Holder
	Mode   AmountMode
	// Amount is used by the simple mode.
	Amount float64
	// Distribution is sampled on every firing in distribution mode.
	Distribution uncertain.Value
	// Table maps firing days to amounts in table mode; its days are the schedule.
	Table map[date.Date]float64
	// Rule is the firing rule, biweekly when empty. Ignored in table mode.
	Rule schedule.Rule
}

// Revenue deposits money into one account on its schedule.
type Revenue struct {
	name         string
	target       Holder
	mode         AmountMode
	amount       float64
	distribution uncertain.Value
	table        map[date.Date]float64
	firing       recurrence
}

func NewRevenue(opts RevenueOptions) (*Revenue, error) {
	if opts.Target == nil {
		return nil, fmt.Errorf("revenue %q: missing target account", opts.Name)
	}
	mode := opts.Mode
	if mode == "" {
		mode = AmountSimple
	}
	r := &Revenue{name: opts.Name, target: opts.Target, mode: mode}
	if r.name == "" {
		r.name = "revenue to " + opts.Target.Name()
	}
	hasDist := opts.Distribution.Distribution != ""
	switch mode {
	case AmountSimple:
		if hasDist || opts.Table != nil {
			return nil, fmt.Errorf("revenue %q: simple mode takes a plain amount: %w", r.name, ErrAmountMode)
		}
		r.amount = opts.Amount
	case AmountDistribution:
		if !hasDist || opts.Table != nil || opts.Amount != 0 {
			return nil, fmt.Errorf("revenue %q: distribution mode takes distribution parameters in place of amount: %w", r.name, ErrAmountMode)
		}
		if !opts.Distribution.Valid() {
			return nil, fmt.Errorf("revenue %q: invalid distribution %s", r.name, opts.Distribution)
		}
		r.distribution = opts.Distribution
	case AmountTable:
		if len(opts.Table) == 0 || hasDist || opts.Amount != 0 {
			return nil, fmt.Errorf("revenue %q: table mode takes a non-empty table of amounts: %w", r.name, ErrAmountMode)
		}
		r.table = make(map[date.Date]float64, len(opts.Table))
		days := make([]date.Date, 0, len(opts.Table))
		for d, v := range opts.Table {
			r.table[d] = v
			days = append(days, d)
		}
		sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
		r.firing = recurrence{dates: days}
		return r, nil
	default:
		return nil, fmt.Errorf("revenue %q: unsupported mode %q: %w", r.name, mode, ErrAmountMode)
	}
	rule := opts.Rule
	if rule == "" {
		rule = schedule.Biweekly
	}
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("revenue %q: %w", r.name, err)
	}
	r.firing = recurrence{rule: rule}
	return r, nil
}

func (r *Revenue) Name() string {
	return r.name
}

func (r *Revenue) Mode() AmountMode {
	return r.mode
}

func (r *Revenue) amountOn(ucfg *uncertain.Config, day date.Date) float64 {
	switch r.mode {
	case AmountDistribution:
		return r.distribution.Sample(ucfg)
	case AmountTable:
		return r.table[day]
	default:
		return r.amount
	}
}

func (r *Revenue) Update(env *Env, day date.Date) error {
	_, ok, err := r.firing.fires(env, day)
	if err != nil {
		return fmt.Errorf("revenue %q: %w", r.name, err)
	}
	if !ok {
		return nil
	}
	amount := r.amountOn(env.Uncertain, day)
	if err := r.target.Deposit(day, amount); err != nil {
		return fmt.Errorf("revenue %q: %w", r.name, err)
	}
	return env.recorder().OnMovement(Movement{
		Kind:        MovementRevenue,
		Source:      r.name,
		Destination: r.target.Name(),
		Day:         day,
		Amount:      amount,
	})
}
