package ui

import (
	"fmt"
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"0", 0},
		{"1.5", 1.5},
		{"-42", -42},
		{"  99  ", 99},
		{"1e-10", 1e-10},
		{"2E3", 2000},
		{"10_000", 10_000},
		{"15k", 15_000},
		{"1.2M", 1_200_000},
		{"6%", 0.06},
		{"1055/12", 1055.0 / 12},
		{"726/12", 60.5},
		{"15k-3k", 12_000},
		{"1+2*3", 7},
		{"(100+50)*1.23", 184.5},
		{"((1+2)*3)+4", 13},
		{"5*-2", -10},
		{"-(2+3)", -5},
		{" 500 + 23 ", 523},
		{"1e2+1", 101},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("amount %q = %g", tt.in, tt.want), func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if err != nil {
				t.Fatalf("ParseAmount(%q) err = %v", tt.in, err)
			}
			if math.Abs(got-tt.want) > 1e-9*math.Max(1, math.Abs(tt.want)) {
				t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"   ",
		"abc",
		"1+",
		"1++2",
		"(1",
		"1)",
		")(",
		"1/0",
		"15kk",
		"triangular(1, 2, 3)",
	}
	for _, in := range invalid {
		t.Run(fmt.Sprintf("invalid %q", in), func(t *testing.T) {
			if _, err := ParseAmount(in); err == nil {
				t.Error("ParseAmount expected error, got nil")
			}
		})
	}
}

func TestParseUncertainValue(t *testing.T) {
	tests := []struct {
		in       string
		fixed    bool
		wantMean float64
	}{
		{"0.07", true, 0.07},
		{"-0.11", true, -0.11},
		{"7%", true, 0.07},
		{"15k", true, 15_000},
		{"triangular(0.0, 0.03, 0.06)", false, 0.03},
		{"uniform(1k, 2k)", false, 1_500},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseUncertainValue(tt.in)
			if err != nil {
				t.Fatalf("ParseUncertainValue(%q) err = %v", tt.in, err)
			}
			if v.IsFixed() != tt.fixed {
				t.Errorf("ParseUncertainValue(%q) fixed = %t, want %t", tt.in, v.IsFixed(), tt.fixed)
			}
			if math.Abs(v.Mean()-tt.wantMean) > 1e-9 {
				t.Errorf("ParseUncertainValue(%q) mean = %v, want %v", tt.in, v.Mean(), tt.wantMean)
			}
		})
	}
	if _, err := ParseUncertainValue("lognormal(1, 2)"); err == nil {
		t.Error("ParseUncertainValue accepted an unknown distribution")
	}
}

func TestFormatWithThousands(t *testing.T) {
	tests := map[float64]string{
		0:          "0",
		999.4:      "999",
		1_000:      "1,000",
		-1_234_567: "-1,234,567",
		12_345.6:   "12,346",
	}
	for in, want := range tests {
		if got := FormatWithThousands(in); got != want {
			t.Errorf("FormatWithThousands(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := map[float64]string{
		1_500.2:    "$1,500",
		-2_000:     "-$2,000",
		math.NaN(): "-",
	}
	for in, want := range tests {
		if got := FormatMoney(in); got != want {
			t.Errorf("FormatMoney(%v) = %q, want %q", in, got, want)
		}
	}
}
