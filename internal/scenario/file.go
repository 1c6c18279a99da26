// Package scenario loads simulation scenarios from TOML files.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/SimonSchneider/goslu/date"
	"github.com/SimonSchneider/pefisim/internal/ui"
	"github.com/SimonSchneider/pefisim/internal/uncertain"
	"github.com/pelletier/go-toml/v2"
)

var (
	ErrUnknownKind    = errors.New("unknown account kind")
	ErrUnknownAccount = errors.New("unknown account")
)

// File is the TOML layout. Amounts may be numbers or amount expressions
// ("15k", "1055/12"), rates and time values may also be distributions
// ("triangular(0.03, 0.07, 0.1)").
type File struct {
	Start     any            `toml:"start"`
	End       any            `toml:"end"`
	Scenarios []ScenarioSpec `toml:"scenario"`
}

type ScenarioSpec struct {
	Name      string         `toml:"name"`
	Start     any            `toml:"start"`
	End       any            `toml:"end"`
	Accounts  []AccountSpec  `toml:"account"`
	Revenues  []RevenueSpec  `toml:"revenue"`
	Transfers []TransferSpec `toml:"transfer"`
	Payments  []PaymentSpec  `toml:"payment"`
}

type AccountSpec struct {
	Name    string `toml:"name"`
	Kind    string `toml:"kind"`
	Balance any    `toml:"balance"`
	Rate    any    `toml:"rate"`
	Rule    string `toml:"rule"`
	Exclude bool   `toml:"exclude"`

	TimeValue   any     `toml:"time_value"`
	Volatility  float64 `toml:"volatility"`
	TradingDays bool    `toml:"trading_days"`

	Principal any `toml:"principal"`
	Equity    any `toml:"equity"`
	Term      int `toml:"term"`
}

type RevenueSpec struct {
	Name    string         `toml:"name"`
	Account string         `toml:"account"`
	Mode    string         `toml:"mode"`
	Amount  any            `toml:"amount"`
	Rule    string         `toml:"rule"`
	Table   map[string]any `toml:"table"`
}

type TransferSpec struct {
	From   string `toml:"from"`
	To     string `toml:"to"`
	Amount any    `toml:"amount"`
	Rule   string `toml:"rule"`
}

type PaymentSpec struct {
	From   string `toml:"from"`
	To     string `toml:"to"`
	Amount any    `toml:"amount"`
	Rule   string `toml:"rule"`
}

func LoadFile(path string) ([]*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	scenarios, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("scenario file %s: %w", path, err)
	}
	return scenarios, nil
}

// Load parses and validates every scenario. Each scenario is built once so
// that configuration errors surface before any trial runs.
func Load(r io.Reader) ([]*Scenario, error) {
	var f File
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios: %w", err)
	}
	return f.Compile()
}

func (f File) Compile() ([]*Scenario, error) {
	if len(f.Scenarios) == 0 {
		return nil, errors.New("no scenarios defined")
	}
	seen := make(map[string]bool, len(f.Scenarios))
	scenarios := make([]*Scenario, 0, len(f.Scenarios))
	for i, spec := range f.Scenarios {
		if spec.Name == "" {
			spec.Name = fmt.Sprintf("scenario-%d", i+1)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("duplicate scenario %q", spec.Name)
		}
		seen[spec.Name] = true
		if spec.Start == nil {
			spec.Start = f.Start
		}
		if spec.End == nil {
			spec.End = f.End
		}
		s, err := compile(spec)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", spec.Name, err)
		}
		if _, err := s.Build(uncertain.NewConfig(0)); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", spec.Name, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func amountOf(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return float64(x), nil
	case float64:
		return x, nil
	case string:
		return ui.ParseAmount(x)
	default:
		return 0, fmt.Errorf("unsupported amount %v (%T)", v, v)
	}
}

func uncertainOf(v any) (uncertain.Value, error) {
	switch x := v.(type) {
	case nil:
		return uncertain.Value{}, nil
	case string:
		return ui.ParseUncertainValue(x)
	default:
		f, err := amountOf(v)
		if err != nil {
			return uncertain.Value{}, err
		}
		return uncertain.NewFixed(f), nil
	}
}

func dateOf(v any) (date.Date, error) {
	switch x := v.(type) {
	case toml.LocalDate:
		return date.ParseDate(x.String())
	case string:
		return date.ParseDate(x)
	case nil:
		return 0, errors.New("missing date")
	default:
		return 0, fmt.Errorf("unsupported date %v (%T)", v, v)
	}
}
