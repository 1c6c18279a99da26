package scenario_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SimonSchneider/pefisim/internal/finance"
	"github.com/SimonSchneider/pefisim/internal/ledger"
	"github.com/SimonSchneider/pefisim/internal/montecarlo"
	"github.com/SimonSchneider/pefisim/internal/scenario"
	"github.com/SimonSchneider/pefisim/internal/schedule"
	"github.com/SimonSchneider/pefisim/internal/uncertain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCarComparison(t *testing.T) {
	scenarios, err := scenario.LoadFile("testdata/car.toml")
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "outright", scenarios[0].Name)
	assert.Equal(t, "financed", scenarios[1].Name)
	assert.Equal(t, "2021-01-01", scenarios[1].From.String())
	assert.Equal(t, "2026-01-01", scenarios[1].To.String())

	sim, err := scenarios[1].Build(uncertain.NewConfig(3))
	require.NoError(t, err)
	objects := sim.Objects()
	require.Len(t, objects, 6)
	names := make([]string, len(objects))
	for i, o := range objects {
		names[i] = o.Name()
	}
	assert.Equal(t, []string{"investment", "car", "gas", "income", "investment -> gas", "investment => car"}, names)

	car, ok := objects[1].(*finance.Liability)
	require.True(t, ok, "car is a %T", objects[1])
	assert.False(t, car.Own())
	assert.Equal(t, 365.06, car.MonthlyPayment())
}

func TestCarComparisonRuns(t *testing.T) {
	if testing.Short() {
		t.Skip("runs full five year trials")
	}
	scenarios, err := scenario.LoadFile("testdata/car.toml")
	require.NoError(t, err)
	res, err := montecarlo.Runner{Trials: 4, Workers: 2, Seed: 11}.Run(context.Background(), scenario.MonteCarlo(scenarios)...)
	require.NoError(t, err)
	assert.Empty(t, res.Failures())

	table := res.Table()
	assert.Equal(t, []string{"outright", "financed"}, table.Columns)
	for _, row := range table.Rows {
		// 130 paychecks of 1030 dominate both outcomes
		assert.Greater(t, row[0], 130_000.0)
		assert.Greater(t, row[1], 130_000.0)
	}
	assert.Zero(t, res.Declines("financed"))
}

func TestExampleFilesRun(t *testing.T) {
	if testing.Short() {
		t.Skip("runs full ten year trials")
	}
	files, err := filepath.Glob("../../examples/*.toml")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			scenarios, err := scenario.LoadFile(f)
			require.NoError(t, err)
			res, err := montecarlo.Runner{Trials: 2, Seed: 5}.Run(context.Background(), scenario.MonteCarlo(scenarios)...)
			require.NoError(t, err)
			assert.Empty(t, res.Failures())
			for _, s := range res.Scenarios() {
				assert.Zero(t, res.Declines(s), s)
			}
		})
	}
}

func TestLoadInlineTableRevenue(t *testing.T) {
	const src = `
start = "2021-01-01"
end = "2021-03-31"

[[scenario]]
name = "bonus"
  [[scenario.account]]
  name = "checking"
  balance = 100
  rate = "2%"
  rule = "Monthly"

  [[scenario.revenue]]
  account = "checking"
  mode = "table"
  [scenario.revenue.table]
  "2021-01-15" = 500
  "2021-02-15" = "1k/2"
`
	scenarios, err := scenario.Load(strings.NewReader(src))
	require.NoError(t, err)
	sim, err := scenarios[0].Build(uncertain.NewConfig(1))
	require.NoError(t, err)
	require.NoError(t, sim.Run(context.Background(), uncertain.NewConfig(1), nil))

	checking := sim.Holders()[0]
	l, err := checking.Ledger()
	require.NoError(t, err)
	deposits := 0.0
	for _, e := range l.Entries() {
		if e.Action == ledger.Deposit {
			deposits += e.Amount
		}
	}
	assert.Equal(t, 1_100.0, deposits)
	assert.Greater(t, checking.CurrentBalance(), 1_100.0)
}

func TestLoadErrors(t *testing.T) {
	const header = `
start = 2021-01-01
end = 2021-12-31
[[scenario]]
name = "s"
  [[scenario.account]]
  name = "a"
  balance = 100
  [[scenario.account]]
  name = "b"
`
	tests := []struct {
		name string
		body string
		is   error
	}{
		{"unknown rule", `
  [[scenario.transfer]]
  from = "a"
  to = "b"
  amount = 1
  rule = "fortnightly"
`, schedule.ErrUnknownRule},
		{"unknown account", `
  [[scenario.revenue]]
  account = "c"
  amount = 1
`, scenario.ErrUnknownAccount},
		{"payment to an account", `
  [[scenario.payment]]
  from = "a"
  to = "b"
  amount = 10
`, finance.ErrNotLiability},
		{"distribution mode with a plain amount", `
  [[scenario.revenue]]
  account = "a"
  mode = "distribution"
  amount = 100
`, finance.ErrAmountMode},
		{"simple mode with a distribution", `
  [[scenario.revenue]]
  account = "a"
  amount = "triangular(1, 2, 3)"
`, finance.ErrAmountMode},
		{"unknown mode", `
  [[scenario.revenue]]
  account = "a"
  mode = "dataframe"
  amount = 1
`, finance.ErrAmountMode},
		{"unknown kind", `
  [[scenario.account]]
  name = "c"
  kind = "crypto"
`, scenario.ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scenario.Load(strings.NewReader(header + tt.body))
			assert.ErrorIs(t, err, tt.is)
		})
	}

	_, err := scenario.Load(strings.NewReader(header + "\n  colour = \"red\"\n"))
	assert.Error(t, err, "unknown fields are rejected")
	_, err = scenario.Load(strings.NewReader(`start = 2021-01-01`))
	assert.Error(t, err, "a file without scenarios is rejected")
}
