package finance

import (
	"github.com/SimonSchneider/goslu/date"
)

type MovementKind string

const (
	MovementRevenue  MovementKind = "revenue"
	MovementTransfer MovementKind = "transfer"
	MovementPayment  MovementKind = "payment"
	MovementPayoff   MovementKind = "payoff"
)

type Movement struct {
	Kind        MovementKind
	Source      string
	Destination string
	Day         date.Date
	Amount      float64
}

type MovementRecorder interface {
	OnMovement(m Movement) error
}

type MovementRecorderFunc func(m Movement) error

func (f MovementRecorderFunc) OnMovement(m Movement) error {
	return f(m)
}

func EmptyMovementRecorder() MovementRecorder {
	return MovementRecorderFunc(func(m Movement) error {
		return nil
	})
}

// DeclineRecorder is told about movements skipped for insufficient funds.
type DeclineRecorder interface {
	OnDecline(m Movement) error
}

type DeclineRecorderFunc func(m Movement) error

func (f DeclineRecorderFunc) OnDecline(m Movement) error {
	return f(m)
}

func EmptyDeclineRecorder() DeclineRecorder {
	return DeclineRecorderFunc(func(m Movement) error {
		return nil
	})
}

type Recorder interface {
	MovementRecorder
	DeclineRecorder
}

type CompositeRecorder struct {
	MovementRecorder
	DeclineRecorder
}

func (r CompositeRecorder) OnMovement(m Movement) error {
	if r.MovementRecorder == nil {
		return nil
	}
	return r.MovementRecorder.OnMovement(m)
}

func (r CompositeRecorder) OnDecline(m Movement) error {
	if r.DeclineRecorder == nil {
		return nil
	}
	return r.DeclineRecorder.OnDecline(m)
}

func (e *Env) recorder() Recorder {
	if e == nil || e.Recorder == nil {
		return CompositeRecorder{}
	}
	return e.Recorder
}
