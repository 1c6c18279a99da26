package finance

import (
	"errors"
	"fmt"

	"github.com/SimonSchneider/goslu/date"
	"github.com/SimonSchneider/pefisim/internal/schedule"
)

var ErrNotLiability = errors.New("payment target must be a liability")

type TransferOptions struct {
	From   Holder
	To     Holder
	Amount float64
	// Rule is the firing rule, monthly when empty.
	Rule schedule.Rule
}

// Transfer moves a fixed amount between two accounts. The destination is only
// credited when the withdrawal from the source succeeds.
type Transfer struct {
	from   Holder
	to     Holder
	amount float64
	firing recurrence
}

func NewTransfer(opts TransferOptions) (*Transfer, error) {
	if opts.From == nil || opts.To == nil {
		return nil, errors.New("transfer: both accounts are required")
	}
	if opts.Amount < 0 {
		return nil, fmt.Errorf("transfer %s -> %s: negative amount %f", opts.From.Name(), opts.To.Name(), opts.Amount)
	}
	rule := opts.Rule
	if rule == "" {
		rule = schedule.Monthly
	}
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("transfer %s -> %s: %w", opts.From.Name(), opts.To.Name(), err)
	}
	return &Transfer{from: opts.From, to: opts.To, amount: opts.Amount, firing: recurrence{rule: rule}}, nil
}

func (t *Transfer) Name() string {
	return t.from.Name() + " -> " + t.to.Name()
}

func (t *Transfer) Update(env *Env, day date.Date) error {
	_, ok, err := t.firing.fires(env, day)
	if err != nil {
		return fmt.Errorf("transfer %s: %w", t.Name(), err)
	}
	if !ok {
		return nil
	}
	m := Movement{Kind: MovementTransfer, Source: t.from.Name(), Destination: t.to.Name(), Day: day, Amount: t.amount}
	success, err := t.from.Withdraw(day, t.amount)
	if err != nil {
		return fmt.Errorf("transfer %s: %w", t.Name(), err)
	}
	if !success {
		return env.recorder().OnDecline(m)
	}
	if err := t.to.Transfer(day, t.amount, t.from.Name()); err != nil {
		return fmt.Errorf("transfer %s: %w", t.Name(), err)
	}
	return env.recorder().OnMovement(m)
}

type PaymentOptions struct {
	From Holder
	// To must be a *Liability.
	To Holder
	// Amount defaults to the liability's monthly loan payment.
	Amount float64
	// Rule is the firing rule, monthly when empty.
	Rule schedule.Rule
}

// Payment pays down a liability from a source account until it is owned.
type Payment struct {
	from   Holder
	to     *Liability
	amount float64
	firing recurrence
}

func NewPayment(opts PaymentOptions) (*Payment, error) {
	if opts.From == nil {
		return nil, errors.New("payment: source account is required")
	}
	to, ok := opts.To.(*Liability)
	if !ok {
		name := "<nil>"
		if opts.To != nil {
			name = opts.To.Name()
		}
		return nil, fmt.Errorf("payment %s -> %s: %w", opts.From.Name(), name, ErrNotLiability)
	}
	amount := opts.Amount
	if amount == 0 {
		amount = to.MonthlyPayment()
	}
	if amount < 0 {
		return nil, fmt.Errorf("payment %s -> %s: negative amount %f", opts.From.Name(), to.Name(), amount)
	}
	rule := opts.Rule
	if rule == "" {
		rule = schedule.Monthly
	}
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("payment %s -> %s: %w", opts.From.Name(), to.Name(), err)
	}
	return &Payment{from: opts.From, to: to, amount: amount, firing: recurrence{rule: rule}}, nil
}

func (p *Payment) Name() string {
	return p.from.Name() + " => " + p.to.Name()
}

func (p *Payment) Amount() float64 {
	return p.amount
}

func (p *Payment) Update(env *Env, day date.Date) error {
	_, ok, err := p.firing.fires(env, day)
	if err != nil {
		return fmt.Errorf("payment %s: %w", p.Name(), err)
	}
	if !ok || p.to.Own() {
		return nil
	}
	amount := p.amount
	if remaining := p.to.CurrentBalance(); amount >= remaining-payoffTolerance {
		amount = remaining
	}
	m := Movement{Kind: MovementPayment, Source: p.from.Name(), Destination: p.to.Name(), Day: day, Amount: amount}
	success, err := p.from.Withdraw(day, amount)
	if err != nil {
		return fmt.Errorf("payment %s: %w", p.Name(), err)
	}
	if !success {
		return env.recorder().OnDecline(m)
	}
	if err := p.to.Pay(day, amount); err != nil {
		return fmt.Errorf("payment %s: %w", p.Name(), err)
	}
	if p.to.Own() {
		m.Kind = MovementPayoff
	}
	return env.recorder().OnMovement(m)
}
