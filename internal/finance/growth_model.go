package finance

import (
	"time"

	"github.com/SimonSchneider/goslu/date"
	"github.com/SimonSchneider/pefisim/internal/uncertain"
)

// AnnualRate is an appreciation (or depreciation) rate that is constant within
// a calendar year. Distributions are sampled on the first observed day and
// again at every December to January rollover.
type AnnualRate struct {
	Value uncertain.Value

	drawn     bool
	current   float64
	lastMonth time.Month
}

func NewAnnualRate(v uncertain.Value) AnnualRate {
	return AnnualRate{Value: v}
}

// On returns the rate in effect on day, resampling when a new year started.
func (r *AnnualRate) On(ucfg *uncertain.Config, day date.Date) float64 {
	month := day.ToStdTime().Month()
	if !r.drawn || (r.lastMonth == time.December && month == time.January) {
		r.current = r.Value.Sample(ucfg)
		r.drawn = true
	}
	r.lastMonth = month
	return r.current
}

// Current is the last rate returned by On.
func (r *AnnualRate) Current() float64 {
	return r.current
}
