// Package ledger implements an append-only balance log ordered by
// (date, sequence) with forward-filled point-in-time queries.
package ledger

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/SimonSchneider/goslu/date"
	"github.com/google/uuid"
)

type Action string

const (
	Open     Action = "Open"
	Deposit  Action = "Deposit"
	Withdraw Action = "Withdraw"
	Transfer Action = "Transfer"
	Interest Action = "Interest"
	Growth   Action = "Growth"
	Payment  Action = "Payment"
)

// Column names a per-entry quantity that History can reduce to a daily series.
type Column string

const (
	ColumnAmount  Column = "amount"
	ColumnBalance Column = "balance"
)

var (
	ErrBackdated     = errors.New("entry dated before the last ledger entry")
	ErrUnknownColumn = errors.New("unknown ledger column")
)

type Entry struct {
	Date    date.Date
	Seq     int
	Action  Action
	Memo    string
	Amount  float64
	Balance float64
	ID      uuid.UUID
}

// Ledger holds the entries of one account. The zero value is not usable, use New.
type Ledger struct {
	entries  []Entry
	days     map[date.Date]span
	lastSeen date.Date
}

// span locates the contiguous entries of one date.
type span struct {
	first, n int
}

// New opens a ledger on day with an Open entry followed by a Deposit of the
// opening balance.
func New(day date.Date, opening float64) *Ledger {
	l := &Ledger{days: make(map[date.Date]span), lastSeen: day}
	l.append(day, Open, "", 0)
	l.append(day, Deposit, "", opening)
	return l
}

func (l *Ledger) append(day date.Date, action Action, memo string, amount float64) Entry {
	sp, ok := l.days[day]
	if !ok {
		sp = span{first: len(l.entries)}
	}
	e := Entry{
		Date:    day,
		Seq:     sp.n,
		Action:  action,
		Memo:    memo,
		Amount:  amount,
		Balance: l.Balance() + amount,
		ID:      uuid.New(),
	}
	sp.n++
	l.days[day] = sp
	l.entries = append(l.entries, e)
	if day.After(l.lastSeen) {
		l.lastSeen = day
	}
	return e
}

// Post appends a signed entry on day.
func (l *Ledger) Post(day date.Date, action Action, memo string, amount float64) (Entry, error) {
	if last := l.Last(); day.Before(last.Date) {
		return Entry{}, fmt.Errorf("%w: %s %s on %s, last entry on %s", ErrBackdated, action, memo, day, last.Date)
	}
	return l.append(day, action, memo, amount), nil
}

// Touch marks day as observed so that daily histories extend through it
// with the balance carried forward.
func (l *Ledger) Touch(day date.Date) {
	if day.After(l.lastSeen) {
		l.lastSeen = day
	}
}

func (l *Ledger) Last() Entry {
	if len(l.entries) == 0 {
		return Entry{}
	}
	return l.entries[len(l.entries)-1]
}

// Balance is the balance after the most recent entry.
func (l *Ledger) Balance() float64 {
	return l.Last().Balance
}

func (l *Ledger) Opened() date.Date {
	return l.entries[0].Date
}

func (l *Ledger) LastSeen() date.Date {
	return l.lastSeen
}

// BalanceOn is the end-of-day balance on day, carried forward from the last
// entry on or before it, and 0 before the ledger opened.
func (l *Ledger) BalanceOn(day date.Date) float64 {
	i := sort.Search(len(l.entries), func(i int) bool {
		return l.entries[i].Date.After(day)
	})
	if i == 0 {
		return 0
	}
	return l.entries[i-1].Balance
}

// On returns the entries posted on day in sequence order.
func (l *Ledger) On(day date.Date) []Entry {
	sp, ok := l.days[day]
	if !ok {
		return nil
	}
	return slices.Clone(l.entries[sp.first : sp.first+sp.n])
}

func (l *Ledger) Entries() []Entry {
	return slices.Clone(l.entries)
}

// Total sums the amounts of all entries with the given action.
func (l *Ledger) Total(action Action) float64 {
	total := 0.0
	for _, e := range l.entries {
		if e.Action == action {
			total += e.Amount
		}
	}
	return total
}

// History reduces the ledger to one value per day from the opening date
// through the last observed day. Balances are carried forward, amounts are
// summed per day.
func (l *Ledger) History(column Column) (Series, error) {
	switch column {
	case ColumnBalance, ColumnAmount:
	default:
		return nil, fmt.Errorf("%w %q: expected %q or %q", ErrUnknownColumn, column, ColumnBalance, ColumnAmount)
	}
	series := make(Series, 0)
	i := 0
	for day := l.Opened(); !day.After(l.lastSeen); day = day.Add(date.Day) {
		amount := 0.0
		for i < len(l.entries) && !l.entries[i].Date.After(day) {
			amount += l.entries[i].Amount
			i++
		}
		v := amount
		if column == ColumnBalance {
			v = l.entries[i-1].Balance
		}
		series = append(series, Point{Date: day, Value: v})
	}
	return series, nil
}
