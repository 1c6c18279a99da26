package ui

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAmount evaluates a money amount written as a number or an arithmetic
// expression over numbers (+, -, *, /, parentheses). Numbers may use
// underscores as separators, scientific notation, a k or m multiplier suffix
// ("15k") or a percent sign ("6%" is 0.06), so "1055/12" and "15k-3k" work.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	e := &evaluator{src: s}
	val, err := e.expr()
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	e.space()
	if !e.done() {
		return 0, fmt.Errorf("amount %q: unexpected %q at position %d", s, e.src[e.pos], e.pos)
	}
	return val, nil
}

// MustParseAmount is ParseAmount for literals known to be valid.
func MustParseAmount(s string) float64 {
	v, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return v
}

// evaluator is a recursive descent evaluator over
//
//	expr   = term { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = number | "(" expr ")" | "-" factor
type evaluator struct {
	src string
	pos int
}

func (e *evaluator) done() bool {
	return e.pos >= len(e.src)
}

func (e *evaluator) peek() byte {
	if e.done() {
		return 0
	}
	return e.src[e.pos]
}

func (e *evaluator) space() {
	for !e.done() && (e.src[e.pos] == ' ' || e.src[e.pos] == '\t') {
		e.pos++
	}
}

// accept consumes c after optional spaces.
func (e *evaluator) accept(c byte) bool {
	e.space()
	if e.peek() == c {
		e.pos++
		return true
	}
	return false
}

func (e *evaluator) expr() (float64, error) {
	val, err := e.term()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case e.accept('+'):
			rhs, err := e.term()
			if err != nil {
				return 0, err
			}
			val += rhs
		case e.accept('-'):
			rhs, err := e.term()
			if err != nil {
				return 0, err
			}
			val -= rhs
		default:
			return val, nil
		}
	}
}

func (e *evaluator) term() (float64, error) {
	val, err := e.factor()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case e.accept('*'):
			rhs, err := e.factor()
			if err != nil {
				return 0, err
			}
			val *= rhs
		case e.accept('/'):
			rhs, err := e.factor()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			val /= rhs
		default:
			return val, nil
		}
	}
}

func (e *evaluator) factor() (float64, error) {
	switch {
	case e.accept('('):
		val, err := e.expr()
		if err != nil {
			return 0, err
		}
		if !e.accept(')') {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		return val, nil
	case e.accept('-'):
		val, err := e.factor()
		return -val, err
	}
	e.space()
	return e.number()
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func (e *evaluator) digits() {
	for !e.done() && (isDigit(e.src[e.pos]) || e.src[e.pos] == '_') {
		e.pos++
	}
}

func (e *evaluator) number() (float64, error) {
	start := e.pos
	if !isDigit(e.peek()) && e.peek() != '.' {
		if e.done() {
			return 0, fmt.Errorf("expected number at end of input")
		}
		return 0, fmt.Errorf("expected number at position %d, found %q", e.pos, e.peek())
	}
	e.digits()
	if e.peek() == '.' {
		e.pos++
		e.digits()
	}
	if c := e.peek(); c == 'e' || c == 'E' {
		next := e.pos + 1
		if next < len(e.src) && (e.src[next] == '+' || e.src[next] == '-') {
			next++
		}
		if next < len(e.src) && isDigit(e.src[next]) {
			e.pos = next
			e.digits()
		}
	}
	text := e.src[start:e.pos]
	val, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", text)
	}
	switch e.peek() {
	case 'k', 'K':
		e.pos++
		val *= 1_000
	case 'm', 'M':
		e.pos++
		val *= 1_000_000
	case '%':
		e.pos++
		val /= 100
	}
	return val, nil
}
