package finance

import (
	"fmt"

	"github.com/SimonSchneider/goslu/date"
	"github.com/SimonSchneider/pefisim/internal/ledger"
	"github.com/SimonSchneider/pefisim/internal/schedule"
	"github.com/SimonSchneider/pefisim/internal/uncertain"
)

// payoffTolerance absorbs floating point residue when a payment settles the loan.
const payoffTolerance = 0.005

type LiabilityOptions struct {
	Name      string
	Principal float64
	// Equity is the down payment. Equal to Principal means bought outright.
	Equity    float64
	Rate      float64
	TermYears int
	// Rule drives loan compounding and market value updates, monthly when empty.
	Rule schedule.Rule
	// TimeValue is the annual appreciation (negative for depreciation).
	TimeValue uncertain.Value
	Exclude   bool
}

type EquityPoint struct {
	Date        date.Date
	MarketValue float64
	Equity      float64
}

// Liability is a financed or owned asset. Its ledger tracks the outstanding
// loan; market value and equity are tracked separately.
type Liability struct {
	Account

	principal   float64
	downPayment float64
	rule        schedule.Rule
	loan        *Loan
	own         bool

	appreciation AnnualRate
	history      []EquityPoint
}

func NewLiability(opts LiabilityOptions) (*Liability, error) {
	if opts.Principal <= 0 {
		return nil, fmt.Errorf("liability %q: principal must be positive, got %f", opts.Name, opts.Principal)
	}
	if opts.Equity < 0 || opts.Equity > opts.Principal {
		return nil, fmt.Errorf("liability %q: equity %f outside [0, %f]", opts.Name, opts.Equity, opts.Principal)
	}
	if opts.TimeValue.Distribution != "" && !opts.TimeValue.Valid() {
		return nil, fmt.Errorf("liability %q: invalid time value %s", opts.Name, opts.TimeValue)
	}
	rule := opts.Rule
	if rule == "" {
		rule = schedule.Monthly
	}
	l := &Liability{
		principal:    opts.Principal,
		downPayment:  opts.Equity,
		rule:         rule,
		appreciation: NewAnnualRate(opts.TimeValue),
	}
	if opts.Principal == opts.Equity {
		a, err := newAccount(opts.Name, 0, 0, rule, schedule.Monthly, opts.Exclude)
		if err != nil {
			return nil, err
		}
		l.Account = a
		l.own = true
		return l, nil
	}
	financed := opts.Principal - opts.Equity
	loan, err := NewLoan(financed, opts.Rate, opts.TermYears)
	if err != nil {
		return nil, fmt.Errorf("liability %q: %w", opts.Name, err)
	}
	a, err := newAccount(opts.Name, financed, opts.Rate, rule, schedule.Monthly, opts.Exclude)
	if err != nil {
		return nil, err
	}
	l.Account = a
	l.loan = &loan
	return l, nil
}

// Own reports whether the asset is owned outright, either from the start or
// after the loan was paid off.
func (l *Liability) Own() bool {
	return l.own
}

func (l *Liability) Principal() float64 {
	return l.principal
}

// Loan is nil for assets bought outright.
func (l *Liability) Loan() *Loan {
	return l.loan
}

// MonthlyPayment is the amortized loan payment, 0 when bought outright.
func (l *Liability) MonthlyPayment() float64 {
	if l.loan == nil {
		return 0
	}
	return l.loan.MonthlyPayment
}

func (l *Liability) InterestToPrincipal() float64 {
	if l.loan == nil {
		return 0
	}
	return l.loan.InterestToPrincipal
}

func (l *Liability) Update(env *Env, day date.Date) error {
	fresh, err := l.update(env, day)
	if err != nil || !fresh {
		return err
	}
	rate := l.appreciation.On(env.Uncertain, day)
	if len(l.history) == 0 {
		l.history = append(l.history, EquityPoint{
			Date:        l.ledger.Opened(),
			MarketValue: l.principal,
			Equity:      l.downPayment,
		})
		return nil
	}
	if _, ok, err := l.compounding.fires(env, day); err != nil || !ok {
		return err
	}
	periods := l.rule.PeriodsPerYear()
	if periods == 0 {
		periods = 12
	}
	marketValue := l.history[len(l.history)-1].MarketValue * (1 + rate/periods)
	equity := marketValue
	if !l.own {
		equity = marketValue - l.CurrentBalance()
	}
	l.history = append(l.history, EquityPoint{Date: day, MarketValue: marketValue, Equity: equity})
	return nil
}

// Pay debits amount from the outstanding balance. A payment that reaches the
// remaining balance settles exactly that balance and makes the asset owned;
// later payments are ignored.
func (l *Liability) Pay(day date.Date, amount float64) error {
	if err := l.active(); err != nil {
		return err
	}
	if l.own {
		return nil
	}
	remaining := l.CurrentBalance()
	if amount < remaining-payoffTolerance {
		return l.post(day, ledger.Payment, "", -amount)
	}
	if err := l.post(day, ledger.Payment, "", -remaining); err != nil {
		return err
	}
	l.own = true
	return nil
}

func (l *Liability) EquityHistory() ([]EquityPoint, error) {
	if err := l.active(); err != nil {
		return nil, err
	}
	return append([]EquityPoint(nil), l.history...), nil
}

// Equity is the latest recorded equity.
func (l *Liability) Equity() float64 {
	if len(l.history) == 0 {
		return l.downPayment
	}
	return l.history[len(l.history)-1].Equity
}

func (l *Liability) MarketValue() float64 {
	if len(l.history) == 0 {
		return l.principal
	}
	return l.history[len(l.history)-1].MarketValue
}

// EquitySeries is the equity history as a sparse series.
func (l *Liability) EquitySeries() (ledger.Series, error) {
	if err := l.active(); err != nil {
		return nil, err
	}
	s := make(ledger.Series, len(l.history))
	for i, p := range l.history {
		s[i] = ledger.Point{Date: p.Date, Value: p.Equity}
	}
	return s, nil
}
