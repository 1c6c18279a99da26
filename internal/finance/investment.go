package finance

import (
	"fmt"
	"time"

	"github.com/SimonSchneider/goslu/date"
	"github.com/SimonSchneider/pefisim/internal/ledger"
	"github.com/SimonSchneider/pefisim/internal/schedule"
	"github.com/SimonSchneider/pefisim/internal/uncertain"
)

type InvestmentOptions struct {
	Name    string
	Balance float64
	// TimeValue is the annual return, fixed or redrawn every calendar year.
	TimeValue uncertain.Value
	// Volatility is the standard deviation of the daily return noise.
	Volatility float64
	// TradingDays restricts growth postings to Fridays and the last simulated
	// day. Returns accrue in between.
	TradingDays bool
	Exclude     bool
}

// Investment is an account without interest whose balance grows by a daily
// return drawn around its annual appreciation.
type Investment struct {
	Account

	appreciation AnnualRate
	volatility   float64
	tradingDays  bool
	pending      float64
}

func NewInvestment(opts InvestmentOptions) (*Investment, error) {
	if opts.TimeValue.Distribution != "" && !opts.TimeValue.Valid() {
		return nil, fmt.Errorf("investment %q: invalid time value %s", opts.Name, opts.TimeValue)
	}
	if opts.Volatility < 0 {
		return nil, fmt.Errorf("investment %q: negative volatility %f", opts.Name, opts.Volatility)
	}
	a, err := newAccount(opts.Name, opts.Balance, 0, schedule.Yearly, schedule.Yearly, opts.Exclude)
	if err != nil {
		return nil, err
	}
	return &Investment{
		Account:      a,
		appreciation: NewAnnualRate(opts.TimeValue),
		volatility:   opts.Volatility,
		tradingDays:  opts.TradingDays,
	}, nil
}

func (i *Investment) Update(env *Env, day date.Date) error {
	fresh, err := i.update(env, day)
	if err != nil || !fresh {
		return err
	}
	dailyReturn := i.appreciation.On(env.Uncertain, day) / 365
	if i.volatility > 0 {
		dailyReturn += i.volatility * env.Uncertain.RNG.NormFloat64()
	}
	i.pending += i.CurrentBalance() * dailyReturn
	if i.tradingDays && day.ToStdTime().Weekday() != time.Friday && day.Before(env.End) {
		return nil
	}
	growth := i.pending
	i.pending = 0
	if growth == 0 {
		return nil
	}
	return i.post(day, ledger.Growth, "", growth)
}

// Appreciation is the annual return in effect for the current year.
func (i *Investment) Appreciation() float64 {
	return i.appreciation.Current()
}
