package finance

import (
	"errors"
	"fmt"

	"github.com/SimonSchneider/goslu/date"
	"github.com/SimonSchneider/pefisim/internal/ledger"
	"github.com/SimonSchneider/pefisim/internal/schedule"
	"github.com/SimonSchneider/pefisim/internal/uncertain"
)

var ErrNotStarted = errors.New("not started: no update has been issued yet")

type State int

const (
	NotStarted State = iota
	Active
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// Env is the per-trial environment handed to every object on each update.
type Env struct {
	Uncertain *uncertain.Config
	Recorder  Recorder
	// End is the last simulated day, schedules are expanded up to it.
	End date.Date
}

// Object is anything the simulation advances day by day.
type Object interface {
	Name() string
	Update(env *Env, day date.Date) error
}

// Holder is a balance-bearing object that movers can credit and debit.
type Holder interface {
	Object
	State() State
	Included() bool
	Deposit(day date.Date, amount float64) error
	// Withdraw reports false, without error, when amount exceeds the balance.
	Withdraw(day date.Date, amount float64) (bool, error)
	Transfer(day date.Date, amount float64, source string) error
	CurrentBalance() float64
	Ledger() (*ledger.Ledger, error)
}

type AccountOptions struct {
	Name    string
	Balance float64
	// Rate is the annual interest rate, accrued daily and posted on Rule.
	Rate float64
	// Rule is the compounding period, yearly when empty.
	Rule schedule.Rule
	// Exclude keeps the account out of the reported net worth.
	Exclude bool
}

type Account struct {
	name    string
	initial float64
	rate    float64
	include bool

	state       State
	lastUpdate  date.Date
	compounding recurrence
	ledger      *ledger.Ledger
}

func NewAccount(opts AccountOptions) (*Account, error) {
	a, err := newAccount(opts.Name, opts.Balance, opts.Rate, opts.Rule, schedule.Yearly, opts.Exclude)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func newAccount(name string, balance, rate float64, rule, defaultRule schedule.Rule, exclude bool) (Account, error) {
	if rule == "" {
		rule = defaultRule
	}
	if err := rule.Validate(); err != nil {
		return Account{}, fmt.Errorf("account %q: %w", name, err)
	}
	return Account{
		name:        name,
		initial:     balance,
		rate:        rate,
		include:     !exclude,
		compounding: recurrence{rule: rule},
	}, nil
}

func (a *Account) Name() string {
	return a.name
}

func (a *Account) State() State {
	return a.state
}

func (a *Account) Included() bool {
	return a.include
}

func (a *Account) Rate() float64 {
	return a.rate
}

// Update activates the account on its first call, records day as observed and
// posts interest when the compounding schedule fires. Repeated calls for an
// already processed day do nothing.
func (a *Account) Update(env *Env, day date.Date) error {
	_, err := a.update(env, day)
	return err
}

// update reports whether day was processed for the first time.
func (a *Account) update(env *Env, day date.Date) (bool, error) {
	switch {
	case a.state == NotStarted:
		a.ledger = ledger.New(day, a.initial)
		a.state = Active
	case !day.After(a.lastUpdate):
		return false, nil
	}
	a.lastUpdate = day
	a.ledger.Touch(day)
	w, ok, err := a.compounding.fires(env, day)
	if err != nil {
		return true, fmt.Errorf("compounding schedule of %q: %w", a.name, err)
	}
	if !ok {
		return true, nil
	}
	return true, a.compound(w)
}

// compound posts the interest accrued daily on the end-of-day balances of w.
func (a *Account) compound(w schedule.Window) error {
	if a.rate == 0 {
		return nil
	}
	dailyRate := a.rate / 365
	interest := 0.0
	for day := w.Start; !day.After(w.End); day = day.Add(date.Day) {
		interest += a.ledger.BalanceOn(day) * dailyRate
	}
	if interest == 0 {
		return nil
	}
	_, err := a.ledger.Post(w.End, ledger.Interest, "", interest)
	return err
}

func (a *Account) active() error {
	if a.state != Active {
		return fmt.Errorf("account %q: %w", a.name, ErrNotStarted)
	}
	return nil
}

func (a *Account) post(day date.Date, action ledger.Action, memo string, amount float64) error {
	if err := a.active(); err != nil {
		return err
	}
	if _, err := a.ledger.Post(day, action, memo, amount); err != nil {
		return fmt.Errorf("account %q: %w", a.name, err)
	}
	return nil
}

func (a *Account) Deposit(day date.Date, amount float64) error {
	return a.post(day, ledger.Deposit, "", amount)
}

func (a *Account) Withdraw(day date.Date, amount float64) (bool, error) {
	if err := a.active(); err != nil {
		return false, err
	}
	if amount > a.ledger.Balance() {
		return false, nil
	}
	if err := a.post(day, ledger.Withdraw, "", -amount); err != nil {
		return false, err
	}
	return true, nil
}

func (a *Account) Transfer(day date.Date, amount float64, source string) error {
	return a.post(day, ledger.Transfer, source, amount)
}

// CurrentBalance is the balance after the latest entry, 0 before activation.
func (a *Account) CurrentBalance() float64 {
	if a.ledger == nil {
		return 0
	}
	return a.ledger.Balance()
}

func (a *Account) Ledger() (*ledger.Ledger, error) {
	if err := a.active(); err != nil {
		return nil, err
	}
	return a.ledger, nil
}

func (a *Account) Total(action ledger.Action) (float64, error) {
	if err := a.active(); err != nil {
		return 0, err
	}
	return a.ledger.Total(action), nil
}

func (a *Account) History(column ledger.Column) (ledger.Series, error) {
	if err := a.active(); err != nil {
		return nil, err
	}
	s, err := a.ledger.History(column)
	if err != nil {
		return nil, fmt.Errorf("account %q: %w", a.name, err)
	}
	return s, nil
}
