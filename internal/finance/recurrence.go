package finance

import (
	"github.com/SimonSchneider/goslu/date"
	"github.com/SimonSchneider/pefisim/internal/schedule"
)

// recurrence expands its rule lazily, anchored at the first day it is asked
// about. Explicit dates take precedence over the rule.
type recurrence struct {
	rule  schedule.Rule
	dates []date.Date

	state    State
	schedule *schedule.Schedule
}

func (r *recurrence) fires(env *Env, day date.Date) (schedule.Window, bool, error) {
	if r.state == NotStarted {
		s, err := r.expand(env, day)
		if err != nil {
			return schedule.Window{}, false, err
		}
		r.schedule = s
		r.state = Active
	}
	w, ok := r.schedule.OnSchedule(day)
	return w, ok, nil
}

func (r *recurrence) expand(env *Env, start date.Date) (*schedule.Schedule, error) {
	if r.dates != nil {
		return schedule.FromDates(r.dates), nil
	}
	if env == nil || env.End.Before(start) {
		return schedule.NewFromStart(r.rule, start)
	}
	return schedule.New(r.rule, start, env.End)
}
