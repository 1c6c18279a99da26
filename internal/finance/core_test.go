package finance_test

import (
	"context"
	"math"
	"testing"

	"github.com/SimonSchneider/goslu/date"
	"github.com/SimonSchneider/pefisim/internal/finance"
	"github.com/SimonSchneider/pefisim/internal/ledger"
	"github.com/SimonSchneider/pefisim/internal/schedule"
	"github.com/SimonSchneider/pefisim/internal/uncertain"
)

func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

var (
	startDate = Must(date.ParseDate("2021-01-01"))
	yearLater = Must(date.ParseDate("2022-01-01"))
)

// trace collects every movement and decline a run reports.
type trace struct {
	movements []finance.Movement
	declines  []finance.Movement
}

func (t *trace) OnMovement(m finance.Movement) error {
	t.movements = append(t.movements, m)
	return nil
}

func (t *trace) OnDecline(m finance.Movement) error {
	t.declines = append(t.declines, m)
	return nil
}

func runSim(t *testing.T, from, to date.Date, objects ...finance.Object) (*finance.Simulation, *trace) {
	t.Helper()
	sim := Must(finance.NewSimulation(from, to, objects...))
	tr := &trace{}
	if err := sim.Run(context.Background(), uncertain.NewConfig(1), tr); err != nil {
		t.Fatalf("failed to run simulation: %s", err)
	}
	return sim, tr
}

func isAround(value, target, tolerance float64) bool {
	return math.Abs(value-target) <= math.Abs(target)*tolerance
}

func checkBalanceChain(t *testing.T, h finance.Holder) {
	t.Helper()
	l, err := h.Ledger()
	if err != nil {
		t.Fatalf("failed to get ledger of %s: %s", h.Name(), err)
	}
	prev := 0.0
	for i, e := range l.Entries() {
		if e.Balance != prev+e.Amount {
			t.Fatalf("%s entry %d (%s %s): balance %f != %f + %f", h.Name(), i, e.Date, e.Action, e.Balance, prev, e.Amount)
		}
		prev = e.Balance
	}
}

func TestInvestmentWithBiweeklyDeposits(t *testing.T) {
	inv := Must(finance.NewInvestment(finance.InvestmentOptions{
		Name:      "Investment",
		Balance:   10_000,
		TimeValue: uncertain.NewFixed(0.06),
	}))
	rev := Must(finance.NewRevenue(finance.RevenueOptions{
		Target: inv,
		Amount: 100,
		Rule:   schedule.Biweekly,
	}))
	end := startDate.Add(363 * date.Day)
	sim, tr := runSim(t, startDate, end, inv, rev)

	if deposited := Must(inv.Total(ledger.Deposit)); deposited != 10_000+26*100 {
		t.Errorf("deposited %f, expected 12600 (opening plus 26 deposits)", deposited)
	}
	if n := len(tr.movements); n != 26 {
		t.Errorf("recorded %d revenue movements, expected 26", n)
	}
	final := Must(sim.FinalNetWorth())
	if !isAround(final, 10_000*1.06+26*100, 0.01) {
		t.Errorf("final net worth %f, expected within 1%% of 13200", final)
	}
	// daily accrual on the end of day balance, deposits after the day's growth
	if math.Abs(final-13_298.5657) > 0.01 {
		t.Errorf("final net worth %f, expected 13298.5657", final)
	}
	checkBalanceChain(t, inv)
}

func TestFinancedCarPayoff(t *testing.T) {
	checking := Must(finance.NewAccount(finance.AccountOptions{Name: "Checking", Balance: 20_000}))
	car := Must(finance.NewLiability(finance.LiabilityOptions{
		Name:      "Car",
		Principal: 15_000,
		Equity:    3_000,
		Rate:      0.06,
		TermYears: 3,
		TimeValue: uncertain.NewFixed(-0.11),
	}))
	pay := Must(finance.NewPayment(finance.PaymentOptions{From: checking, To: car}))
	if pay.Amount() != 365.06 {
		t.Fatalf("monthly payment %f, expected 365.06", pay.Amount())
	}
	end := Must(date.ParseDate("2024-01-01"))
	_, tr := runSim(t, startDate, end, checking, car, pay)

	if !car.Own() {
		t.Fatalf("car is not owned after the full term, balance %f", car.CurrentBalance())
	}
	if bal := car.CurrentBalance(); bal != 0 {
		t.Errorf("car balance %f after payoff, expected exactly 0", bal)
	}
	payoffs := 0
	var payoffDay date.Date
	for _, m := range tr.movements {
		if m.Kind == finance.MovementPayoff {
			payoffs++
			payoffDay = m.Day
		}
	}
	if payoffs != 1 {
		t.Fatalf("recorded %d payoffs, expected exactly one", payoffs)
	}
	if payoffDay.After(end) {
		t.Errorf("paid off on %s, after the last scheduled payment %s", payoffDay, end)
	}
	l := Must(car.Ledger())
	for _, e := range l.Entries() {
		if e.Balance < 0 {
			t.Fatalf("car balance went negative on %s: %f", e.Date, e.Balance)
		}
		if e.Action == ledger.Payment && e.Date.After(payoffDay) {
			t.Errorf("payment entry on %s after payoff on %s", e.Date, payoffDay)
		}
	}
	if n := len(tr.declines); n != 0 {
		t.Errorf("%d payments declined, expected none", n)
	}
	checkBalanceChain(t, car)
	checkBalanceChain(t, checking)
}

func TestOwnedLiabilityIgnoresPayments(t *testing.T) {
	checking := Must(finance.NewAccount(finance.AccountOptions{Name: "Checking", Balance: 1_000}))
	car := Must(finance.NewLiability(finance.LiabilityOptions{
		Name:      "Car",
		Principal: 15_000,
		Equity:    15_000,
		TimeValue: uncertain.NewFixed(-0.12),
	}))
	if !car.Own() {
		t.Fatalf("car bought outright is not owned")
	}
	pay := Must(finance.NewPayment(finance.PaymentOptions{From: checking, To: car, Amount: 100}))
	end := yearLater
	_, tr := runSim(t, startDate, end, checking, car, pay)

	if n := len(tr.movements); n != 0 {
		t.Errorf("recorded %d payments to an owned car, expected none", n)
	}
	if bal := checking.CurrentBalance(); bal != 1_000 {
		t.Errorf("checking balance %f, expected untouched 1000", bal)
	}
	if n := Must(car.Total(ledger.Payment)); n != 0 {
		t.Errorf("owned car received payments totalling %f", n)
	}
	history := Must(car.EquityHistory())
	if history[0].Equity != 15_000 || history[0].Date != startDate {
		t.Errorf("equity history seeded with %+v, expected 15000 on %s", history[0], startDate)
	}
	last := history[len(history)-1]
	if last.Equity != last.MarketValue {
		t.Errorf("owned car equity %f differs from market value %f", last.Equity, last.MarketValue)
	}
	// one seed point plus twelve monthly updates after the opening day
	if len(history) != 13 {
		t.Errorf("equity history has %d points, expected 13", len(history))
	}
	expected := 15_000 * math.Pow(1-0.12/12, 12)
	if !isAround(last.MarketValue, expected, 1e-9) {
		t.Errorf("market value %f after a year, expected %f", last.MarketValue, expected)
	}
}

func TestTransferUnderfundedSourceDoesNothing(t *testing.T) {
	checking := Must(finance.NewAccount(finance.AccountOptions{Name: "Checking", Balance: 50}))
	savings := Must(finance.NewAccount(finance.AccountOptions{Name: "Savings", Balance: 10}))
	trn := Must(finance.NewTransfer(finance.TransferOptions{From: checking, To: savings, Amount: 100, Rule: schedule.Monthly}))
	_, tr := runSim(t, startDate, startDate.Add(89*date.Day), checking, savings, trn)

	if bal := savings.CurrentBalance(); bal != 10 {
		t.Errorf("savings balance %f, expected untouched 10", bal)
	}
	if bal := checking.CurrentBalance(); bal != 50 {
		t.Errorf("checking balance %f, expected untouched 50", bal)
	}
	if n := len(tr.declines); n != 3 {
		t.Errorf("recorded %d declines, expected one per month (3)", n)
	}
	if n := Must(savings.Total(ledger.Transfer)); n != 0 {
		t.Errorf("savings received transfers totalling %f", n)
	}
}

func TestTransfersBetweenAccounts(t *testing.T) {
	checking := Must(finance.NewAccount(finance.AccountOptions{Name: "Checking", Balance: 13_000}))
	savings := Must(finance.NewAccount(finance.AccountOptions{Name: "Savings"}))
	trn := Must(finance.NewTransfer(finance.TransferOptions{From: checking, To: savings, Amount: 1_000, Rule: "*-*-25"}))
	_, _ = runSim(t, startDate, yearLater, checking, savings, trn)

	if bal := checking.CurrentBalance(); bal != 1_000 {
		t.Errorf("checking balance after transfers is %f, expected to be 1000", bal)
	}
	if bal := savings.CurrentBalance(); bal != 12_000 {
		t.Errorf("savings balance after transfers is %f, expected to be 12000", bal)
	}
	l := Must(savings.Ledger())
	for _, e := range l.Entries() {
		if e.Action == ledger.Transfer && e.Memo != "Checking" {
			t.Errorf("transfer memo %q, expected the source name", e.Memo)
		}
	}
}

func TestNetWorthExcludesAccounts(t *testing.T) {
	a := Must(finance.NewAccount(finance.AccountOptions{Name: "A", Balance: 100}))
	b := Must(finance.NewAccount(finance.AccountOptions{Name: "B", Balance: 50, Exclude: true}))
	car := Must(finance.NewLiability(finance.LiabilityOptions{
		Name: "Car", Principal: 1_000, Equity: 200, Rate: 0.05, TermYears: 1,
	}))
	end := startDate.Add(9 * date.Day)
	sim, _ := runSim(t, startDate, end, a, b, car)

	cols := Must(sim.Breakdown())
	if len(cols) != 2 {
		t.Fatalf("breakdown has %d columns, expected 2", len(cols))
	}
	for _, c := range cols {
		if len(c.Series) != 10 {
			t.Errorf("column %s has %d days, expected 10", c.Name, len(c.Series))
		}
	}
	nw := Must(sim.NetWorth())
	// no appreciation, so the car contributes its down payment
	if v := nw.Last().Value; v != 300 {
		t.Errorf("net worth %f, expected 300", v)
	}
}

func TestNetWorthBeforeRun(t *testing.T) {
	sim := Must(finance.NewSimulation(startDate, startDate.Add(date.Day)))
	if _, err := sim.NetWorth(); err != finance.ErrNotRun {
		t.Errorf("expected ErrNotRun, got %v", err)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	acc := Must(finance.NewAccount(finance.AccountOptions{Name: "A", Balance: 1}))
	sim := Must(finance.NewSimulation(startDate, startDate.Add(10*date.Year), acc))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sim.Run(ctx, uncertain.NewConfig(1), nil); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func BenchmarkFinancedCar(b *testing.B) {
	end := startDate.Add(3 * date.Year)
	for b.Loop() {
		checking := Must(finance.NewAccount(finance.AccountOptions{Name: "Checking", Balance: 20_000}))
		car := Must(finance.NewLiability(finance.LiabilityOptions{
			Name: "Car", Principal: 15_000, Equity: 3_000, Rate: 0.06, TermYears: 3,
			TimeValue: uncertain.NewTriangular(-0.15, -0.11, -0.05),
		}))
		pay := Must(finance.NewPayment(finance.PaymentOptions{From: checking, To: car}))
		sim := Must(finance.NewSimulation(startDate, end, checking, car, pay))
		if err := sim.Run(context.Background(), uncertain.NewConfig(1), nil); err != nil {
			b.Fatalf("failed to run simulation: %s", err)
		}
	}
}
