package finance

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Loan is a fixed-payment monthly amortizing loan.
type Loan struct {
	Amount     float64
	AnnualRate float64
	TermYears  int

	MonthlyPayment float64
	TotalInterest  float64
	// InterestToPrincipal is the total interest paid over the term divided by Amount.
	InterestToPrincipal float64
}

type Installment struct {
	Period    int
	Payment   decimal.Decimal
	Interest  decimal.Decimal
	Principal decimal.Decimal
	Remaining decimal.Decimal
}

func NewLoan(amount, annualRate float64, termYears int) (Loan, error) {
	if amount <= 0 {
		return Loan{}, fmt.Errorf("loan amount must be positive, got %f", amount)
	}
	if termYears <= 0 {
		return Loan{}, fmt.Errorf("loan term must be at least one year, got %d", termYears)
	}
	if annualRate < 0 {
		return Loan{}, fmt.Errorf("loan rate must not be negative, got %f", annualRate)
	}
	l := Loan{Amount: amount, AnnualRate: annualRate, TermYears: termYears}
	l.MonthlyPayment = l.payment().InexactFloat64()
	total := decimal.Zero
	for _, inst := range l.Amortization() {
		total = total.Add(inst.Interest)
	}
	l.TotalInterest = total.InexactFloat64()
	l.InterestToPrincipal = total.Div(decimal.NewFromFloat(amount)).InexactFloat64()
	return l, nil
}

func (l Loan) periods() int {
	return l.TermYears * 12
}

// payment is P * r * (1+r)^n / ((1+r)^n - 1) rounded to cents.
func (l Loan) payment() decimal.Decimal {
	principal := decimal.NewFromFloat(l.Amount)
	n := l.periods()
	r := l.AnnualRate / 12
	if r == 0 {
		return principal.Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	factor := math.Pow(1+r, float64(n))
	return decimal.NewFromFloat(l.Amount * r * factor / (factor - 1)).Round(2)
}

// Amortization is the monthly schedule; the last installment absorbs rounding
// so the remaining balance ends at exactly zero.
func (l Loan) Amortization() []Installment {
	n := l.periods()
	payment := l.payment()
	rate := decimal.NewFromFloat(l.AnnualRate / 12)
	remaining := decimal.NewFromFloat(l.Amount)
	installments := make([]Installment, 0, n)
	for period := 1; period <= n; period++ {
		interest := remaining.Mul(rate).Round(2)
		principal := payment.Sub(interest)
		if period == n || principal.GreaterThan(remaining) {
			principal = remaining
		}
		remaining = remaining.Sub(principal)
		installments = append(installments, Installment{
			Period:    period,
			Payment:   principal.Add(interest),
			Interest:  interest,
			Principal: principal,
			Remaining: remaining,
		})
		if remaining.IsZero() {
			break
		}
	}
	return installments
}
