package scenario

import (
	"fmt"
	"strings"

	"github.com/SimonSchneider/goslu/date"
	"github.com/SimonSchneider/pefisim/internal/finance"
	"github.com/SimonSchneider/pefisim/internal/montecarlo"
	"github.com/SimonSchneider/pefisim/internal/schedule"
	"github.com/SimonSchneider/pefisim/internal/uncertain"
)

type Kind string

const (
	KindBank       Kind = "bank"
	KindInvestment Kind = "investment"
	KindLiability  Kind = "liability"
)

// Scenario is a validated description of one trial. Build creates fresh
// objects on every call.
type Scenario struct {
	Name     string
	From, To date.Date

	accounts  []accountPlan
	revenues  []revenuePlan
	transfers []transferPlan
	payments  []paymentPlan
}

type accountPlan struct {
	kind       Kind
	bank       finance.AccountOptions
	investment finance.InvestmentOptions
	liability  finance.LiabilityOptions
	// rate is drawn once per trial for liabilities.
	rate uncertain.Value
}

type revenuePlan struct {
	account string
	opts    finance.RevenueOptions
}

type transferPlan struct {
	from, to string
	opts     finance.TransferOptions
}

type paymentPlan struct {
	from, to string
	opts     finance.PaymentOptions
}

func compile(spec ScenarioSpec) (*Scenario, error) {
	from, err := dateOf(spec.Start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	to, err := dateOf(spec.End)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end %s before start %s", to, from)
	}
	s := &Scenario{Name: spec.Name, From: from, To: to}
	names := make(map[string]Kind, len(spec.Accounts))
	for i, a := range spec.Accounts {
		if a.Name == "" {
			return nil, fmt.Errorf("account %d: missing name", i+1)
		}
		if _, ok := names[a.Name]; ok {
			return nil, fmt.Errorf("duplicate account %q", a.Name)
		}
		p, err := compileAccount(a)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", a.Name, err)
		}
		names[a.Name] = p.kind
		s.accounts = append(s.accounts, p)
	}
	known := func(name string) error {
		if _, ok := names[name]; !ok {
			return fmt.Errorf("%w %q", ErrUnknownAccount, name)
		}
		return nil
	}
	for i, r := range spec.Revenues {
		if err := known(r.Account); err != nil {
			return nil, fmt.Errorf("revenue %d: %w", i+1, err)
		}
		opts, err := compileRevenue(r)
		if err != nil {
			return nil, fmt.Errorf("revenue %d: %w", i+1, err)
		}
		s.revenues = append(s.revenues, revenuePlan{account: r.Account, opts: opts})
	}
	for i, t := range spec.Transfers {
		if err := known(t.From); err != nil {
			return nil, fmt.Errorf("transfer %d: %w", i+1, err)
		}
		if err := known(t.To); err != nil {
			return nil, fmt.Errorf("transfer %d: %w", i+1, err)
		}
		amount, err := amountOf(t.Amount)
		if err != nil {
			return nil, fmt.Errorf("transfer %d: %w", i+1, err)
		}
		rule, err := ruleOf(t.Rule)
		if err != nil {
			return nil, fmt.Errorf("transfer %d: %w", i+1, err)
		}
		s.transfers = append(s.transfers, transferPlan{from: t.From, to: t.To, opts: finance.TransferOptions{Amount: amount, Rule: rule}})
	}
	for i, p := range spec.Payments {
		if err := known(p.From); err != nil {
			return nil, fmt.Errorf("payment %d: %w", i+1, err)
		}
		if err := known(p.To); err != nil {
			return nil, fmt.Errorf("payment %d: %w", i+1, err)
		}
		amount, err := amountOf(p.Amount)
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", i+1, err)
		}
		rule, err := ruleOf(p.Rule)
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", i+1, err)
		}
		s.payments = append(s.payments, paymentPlan{from: p.From, to: p.To, opts: finance.PaymentOptions{Amount: amount, Rule: rule}})
	}
	return s, nil
}

func ruleOf(s string) (schedule.Rule, error) {
	if s == "" {
		return "", nil
	}
	return schedule.ParseRule(s)
}

func compileAccount(a AccountSpec) (accountPlan, error) {
	rule, err := ruleOf(a.Rule)
	if err != nil {
		return accountPlan{}, err
	}
	timeValue, err := uncertainOf(a.TimeValue)
	if err != nil {
		return accountPlan{}, fmt.Errorf("time value: %w", err)
	}
	balance, err := amountOf(a.Balance)
	if err != nil {
		return accountPlan{}, fmt.Errorf("balance: %w", err)
	}
	kind := Kind(strings.ToLower(a.Kind))
	if kind == "" {
		kind = KindBank
	}
	p := accountPlan{kind: kind}
	switch kind {
	case KindBank:
		rate, err := amountOf(a.Rate)
		if err != nil {
			return accountPlan{}, fmt.Errorf("rate: %w", err)
		}
		p.bank = finance.AccountOptions{Name: a.Name, Balance: balance, Rate: rate, Rule: rule, Exclude: a.Exclude}
	case KindInvestment:
		p.investment = finance.InvestmentOptions{
			Name:        a.Name,
			Balance:     balance,
			TimeValue:   timeValue,
			Volatility:  a.Volatility,
			TradingDays: a.TradingDays,
			Exclude:     a.Exclude,
		}
	case KindLiability:
		principal, err := amountOf(a.Principal)
		if err != nil {
			return accountPlan{}, fmt.Errorf("principal: %w", err)
		}
		equity, err := amountOf(a.Equity)
		if err != nil {
			return accountPlan{}, fmt.Errorf("equity: %w", err)
		}
		if p.rate, err = uncertainOf(a.Rate); err != nil {
			return accountPlan{}, fmt.Errorf("rate: %w", err)
		}
		p.liability = finance.LiabilityOptions{
			Name:      a.Name,
			Principal: principal,
			Equity:    equity,
			TermYears: a.Term,
			Rule:      rule,
			TimeValue: timeValue,
			Exclude:   a.Exclude,
		}
	default:
		return accountPlan{}, fmt.Errorf("%w %q", ErrUnknownKind, a.Kind)
	}
	return p, nil
}

func compileRevenue(r RevenueSpec) (finance.RevenueOptions, error) {
	mode, err := finance.ParseAmountMode(strings.ToLower(r.Mode))
	if err != nil {
		return finance.RevenueOptions{}, err
	}
	rule, err := ruleOf(r.Rule)
	if err != nil {
		return finance.RevenueOptions{}, err
	}
	opts := finance.RevenueOptions{Name: r.Name, Mode: mode, Rule: rule}
	if mode != finance.AmountTable && r.Table != nil {
		return finance.RevenueOptions{}, fmt.Errorf("%s mode with a table: %w", mode, finance.ErrAmountMode)
	}
	switch mode {
	case finance.AmountTable:
		if r.Amount != nil {
			return finance.RevenueOptions{}, fmt.Errorf("table mode with an amount: %w", finance.ErrAmountMode)
		}
		opts.Table = make(map[date.Date]float64, len(r.Table))
		for k, v := range r.Table {
			d, err := date.ParseDate(k)
			if err != nil {
				return finance.RevenueOptions{}, fmt.Errorf("table date %q: %w", k, err)
			}
			if opts.Table[d], err = amountOf(v); err != nil {
				return finance.RevenueOptions{}, fmt.Errorf("table amount on %s: %w", k, err)
			}
		}
		return opts, nil
	}
	if r.Amount == nil {
		return finance.RevenueOptions{}, fmt.Errorf("%s mode without an amount: %w", mode, finance.ErrAmountMode)
	}
	amount, err := uncertainOf(r.Amount)
	if err != nil {
		return finance.RevenueOptions{}, fmt.Errorf("amount: %w", err)
	}
	switch {
	case mode == finance.AmountDistribution && amount.IsFixed():
		return finance.RevenueOptions{}, fmt.Errorf("distribution mode takes distribution parameters, got %s: %w", amount, finance.ErrAmountMode)
	case mode == finance.AmountDistribution:
		opts.Distribution = amount
	case !amount.IsFixed():
		return finance.RevenueOptions{}, fmt.Errorf("simple mode takes a plain amount, got %s: %w", amount, finance.ErrAmountMode)
	default:
		opts.Amount = amount.Fixed
	}
	return opts, nil
}

// Build creates the objects of one trial, accounts first in file order, then
// revenues, transfers and payments.
func (s *Scenario) Build(ucfg *uncertain.Config) (*finance.Simulation, error) {
	holders := make(map[string]finance.Holder, len(s.accounts))
	sim, err := finance.NewSimulation(s.From, s.To)
	if err != nil {
		return nil, err
	}
	for _, p := range s.accounts {
		h, err := p.build(ucfg)
		if err != nil {
			return nil, err
		}
		holders[h.Name()] = h
		sim.Add(h)
	}
	for _, p := range s.revenues {
		opts := p.opts
		opts.Target = holders[p.account]
		r, err := finance.NewRevenue(opts)
		if err != nil {
			return nil, err
		}
		sim.Add(r)
	}
	for _, p := range s.transfers {
		opts := p.opts
		opts.From, opts.To = holders[p.from], holders[p.to]
		t, err := finance.NewTransfer(opts)
		if err != nil {
			return nil, err
		}
		sim.Add(t)
	}
	for _, p := range s.payments {
		opts := p.opts
		opts.From, opts.To = holders[p.from], holders[p.to]
		pay, err := finance.NewPayment(opts)
		if err != nil {
			return nil, err
		}
		sim.Add(pay)
	}
	return sim, nil
}

func (p accountPlan) build(ucfg *uncertain.Config) (finance.Holder, error) {
	switch p.kind {
	case KindInvestment:
		return finance.NewInvestment(p.investment)
	case KindLiability:
		opts := p.liability
		opts.Rate = p.rate.Sample(ucfg)
		return finance.NewLiability(opts)
	default:
		return finance.NewAccount(p.bank)
	}
}

// MonteCarlo adapts the scenario to the trial runner.
func (s *Scenario) MonteCarlo() montecarlo.Scenario {
	return montecarlo.Scenario{Name: s.Name, Build: s.Build}
}

func MonteCarlo(scenarios []*Scenario) []montecarlo.Scenario {
	out := make([]montecarlo.Scenario, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.MonteCarlo()
	}
	return out
}
