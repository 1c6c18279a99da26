package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SimonSchneider/goslu/static/shttp"
	"github.com/SimonSchneider/pefisim/internal/uncertain"
)

// ParseUncertainValue reads a fixed amount ("0.07", "7%", "15k") or a
// distribution ("triangular(0, 0.03, 0.06)") whose parameters are amounts.
func ParseUncertainValue(val string) (uncertain.Value, error) {
	val = strings.TrimSpace(val)
	open := strings.IndexByte(val, '(')
	if open <= 0 {
		f, err := ParseAmount(val)
		if err != nil {
			return uncertain.Value{}, err
		}
		return uncertain.NewFixed(f), nil
	}
	if !strings.HasSuffix(val, ")") {
		return uncertain.Value{}, fmt.Errorf("distribution %q: missing closing parenthesis", val)
	}
	params := strings.Split(val[open+1:len(val)-1], ",")
	canonical := make([]string, len(params))
	for i, p := range params {
		f, err := ParseAmount(p)
		if err != nil {
			return uncertain.Value{}, fmt.Errorf("distribution %q parameter %d: %w", val, i+1, err)
		}
		canonical[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	value, err := uncertain.Decode(val[:open] + "(" + strings.Join(canonical, ", ") + ")")
	if err != nil {
		return uncertain.Value{}, fmt.Errorf("decoding uncertain value: %w", err)
	}
	return value, nil
}

func ParseHumanNumber[T int | int64 | int32 | float64 | float32](delegate func(string) (T, error)) func(string) (T, error) {
	return func(val string) (T, error) {
		if val == "" {
			return 0, nil
		}
		suffix := val[len(val)-1]
		mult := T(1)
		if suffix == 'k' || suffix == 'K' {
			mult = 1_000
			val = val[:len(val)-1]
		} else if suffix == 'm' || suffix == 'M' {
			mult = 1_000_000
			val = val[:len(val)-1]
		}
		i, err := delegate(val)
		return i * mult, err
	}
}

func ParseInt(val string) (int, error) {
	if val == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parsing int: %w", err)
	}
	return i, nil
}

func ParseFloat(val string) (float64, error) {
	f, err := shttp.ParseFloat(val)
	if err != nil {
		return 0, fmt.Errorf("parsing float: %w", err)
	}
	return f, nil
}

func OrDefault[T any](val *T, def T) T {
	if val == nil {
		return def
	}
	return *val
}
