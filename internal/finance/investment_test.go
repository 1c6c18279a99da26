package finance_test

import (
	"math"
	"testing"
	"time"

	"github.com/SimonSchneider/goslu/date"
	"github.com/SimonSchneider/pefisim/internal/finance"
	"github.com/SimonSchneider/pefisim/internal/ledger"
	"github.com/SimonSchneider/pefisim/internal/uncertain"
)

func finalBalance(t *testing.T, opts finance.InvestmentOptions, end date.Date) (*finance.Investment, float64) {
	t.Helper()
	inv := Must(finance.NewInvestment(opts))
	runSim(t, startDate, end, inv)
	checkBalanceChain(t, inv)
	return inv, inv.CurrentBalance()
}

func TestTradingDaysPostsOnFridaysAndLastDay(t *testing.T) {
	end := Must(date.ParseDate("2021-01-11"))
	opts := finance.InvestmentOptions{Name: "stocks", Balance: 10_000, TimeValue: uncertain.NewFixed(0.365), TradingDays: true}
	inv, trading := finalBalance(t, opts, end)

	l := Must(inv.Ledger())
	var posted []date.Date
	for _, e := range l.Entries() {
		if e.Action != ledger.Growth {
			continue
		}
		if e.Date != end && e.Date.ToStdTime().Weekday() != time.Friday {
			t.Errorf("growth posted on %s %s", e.Date.ToStdTime().Weekday(), e.Date)
		}
		posted = append(posted, e.Date)
	}
	// 2021-01-01 and 2021-01-08 are Fridays
	if len(posted) != 3 || posted[2] != end {
		t.Fatalf("expected growth on two Fridays and %s, got %v", end, posted)
	}
	// returns accrue on the balance as of the last posting
	if math.Abs(trading-10_110.31021) > 1e-6 {
		t.Errorf("trading days balance %f, expected 10110.31021", trading)
	}

	opts.TradingDays = false
	_, daily := finalBalance(t, opts, end)
	if math.Abs(daily-10_000*math.Pow(1.001, 11)) > 1e-6 {
		t.Errorf("daily balance %f, expected %f", daily, 10_000*math.Pow(1.001, 11))
	}
	if !isAround(trading, daily, 0.0001) {
		t.Errorf("trading days balance %f drifted from daily balance %f", trading, daily)
	}
}

func TestVolatilityIsSeeded(t *testing.T) {
	end := Must(date.ParseDate("2021-03-31"))
	opts := finance.InvestmentOptions{Name: "stocks", Balance: 10_000, TimeValue: uncertain.NewFixed(0.07), Volatility: 0.01}
	_, first := finalBalance(t, opts, end)
	_, second := finalBalance(t, opts, end)
	if first != second {
		t.Fatalf("same seed gave %f and %f", first, second)
	}
	opts.Volatility = 0
	_, calm := finalBalance(t, opts, end)
	if first == calm {
		t.Errorf("volatility had no effect, both runs ended at %f", calm)
	}
	if !isAround(first, calm, 0.5) {
		t.Errorf("volatile balance %f implausibly far from %f", first, calm)
	}
}

func TestNegativeVolatilityRejected(t *testing.T) {
	if _, err := finance.NewInvestment(finance.InvestmentOptions{Name: "x", Volatility: -0.1}); err == nil {
		t.Fatal("expected negative volatility to be rejected")
	}
}
