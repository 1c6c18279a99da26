// Package schedule expands recurrence rules into the calendar days on which a
// periodic event fires.
package schedule

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/SimonSchneider/goslu/date"
	"github.com/teambition/rrule-go"
)

type Rule string

const (
	Yearly   Rule = "yearly"
	Monthly  Rule = "monthly"
	Weekly   Rule = "weekly"
	Biweekly Rule = "biweekly"
	Daily    Rule = "daily"
)

var ErrUnknownRule = errors.New("unknown schedule rule")

// DefaultHorizon bounds the expansion when no end date is known.
var DefaultHorizon = 100 * date.Year

// ParseRule accepts the named rules and day cron patterns such as "*-*-25".
func ParseRule(s string) (Rule, error) {
	r := Rule(strings.ToLower(strings.TrimSpace(s)))
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

func (r Rule) Validate() error {
	switch r {
	case Yearly, Monthly, Weekly, Biweekly, Daily:
		return nil
	}
	if r.isCron() {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownRule, string(r))
}

// PeriodsPerYear is the number of occurrences of r in a year, or 0 for cron rules.
func (r Rule) PeriodsPerYear() float64 {
	switch r {
	case Yearly:
		return 1
	case Monthly:
		return 12
	case Weekly:
		return 52
	case Biweekly:
		return 26
	case Daily:
		return 365
	default:
		return 0
	}
}

func (r Rule) isCron() bool {
	parts := strings.Split(string(r), "-")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// Window is the closed range of days an occurrence covers.
type Window struct {
	Start date.Date
	End   date.Date
}

// Days is the number of days in the window.
func (w Window) Days() int {
	return daysBetween(w.Start, w.End) + 1
}

// Schedule is an immutable, strictly increasing set of occurrence days.
type Schedule struct {
	days  []date.Date
	index map[date.Date]int
}

// New expands rule from start (inclusive) up to until (inclusive).
func New(rule Rule, start, until date.Date) (*Schedule, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if until.Before(start) {
		return FromDates(nil), nil
	}
	if rule.isCron() {
		return expandCron(date.Cron(rule), start, until), nil
	}
	opt := rrule.ROption{
		Dtstart: start.ToStdTime(),
		Until:   until.ToStdTime(),
	}
	switch rule {
	case Yearly:
		opt.Freq = rrule.YEARLY
	case Monthly:
		opt.Freq = rrule.MONTHLY
	case Weekly:
		opt.Freq = rrule.WEEKLY
	case Biweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
		opt.Wkst = rrule.MO
	case Daily:
		opt.Freq = rrule.DAILY
	}
	rr, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("expanding %s rule from %s: %w", rule, start, err)
	}
	occurrences := rr.All()
	days := make([]date.Date, 0, len(occurrences))
	for _, t := range occurrences {
		days = append(days, fromStdTime(start, t))
	}
	return FromDates(days), nil
}

// NewFromStart expands rule for DefaultHorizon after start.
func NewFromStart(rule Rule, start date.Date) (*Schedule, error) {
	return New(rule, start, start.Add(DefaultHorizon))
}

// FromDates builds a schedule that fires on exactly the given days.
func FromDates(days []date.Date) *Schedule {
	sorted := slices.Clone(days)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	index := make(map[date.Date]int, len(sorted))
	for i, d := range sorted {
		index[d] = i
	}
	return &Schedule{days: sorted, index: index}
}

func expandCron(cron date.Cron, start, until date.Date) *Schedule {
	days := make([]date.Date, 0)
	for day := start; !day.After(until); day = day.Add(date.Day) {
		if cron.Matches(day) {
			days = append(days, day)
		}
	}
	return FromDates(days)
}

// OnSchedule reports whether day is an occurrence and, if so, the window
// since the previous occurrence.
func (s *Schedule) OnSchedule(day date.Date) (Window, bool) {
	i, ok := s.index[day]
	if !ok {
		return Window{}, false
	}
	if i == 0 {
		return Window{Start: day, End: day}, true
	}
	return Window{Start: s.days[i-1].Add(date.Day), End: day}, true
}

func (s *Schedule) Days() []date.Date {
	return slices.Clone(s.days)
}

func (s *Schedule) Len() int {
	return len(s.days)
}

func daysBetween(from, to date.Date) int {
	return int(math.Round(to.ToStdTime().Sub(from.ToStdTime()).Hours() / 24))
}

func fromStdTime(anchor date.Date, t time.Time) date.Date {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, anchor.ToStdTime().Location())
	return anchor.Add(date.Duration(int(math.Round(midnight.Sub(anchor.ToStdTime()).Hours()/24))) * date.Day)
}
