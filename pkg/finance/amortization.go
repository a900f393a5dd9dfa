// Package finance holds the pure computation engines: loan amortization,
// investment returns, and portfolio aggregation. Nothing here performs I/O or
// keeps state; every function is safe to call concurrently.
package finance

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avendale/groundwork/pkg/models"
)

var (
	ErrInvalidPrincipal = errors.New("loan principal must be positive")
	ErrInvalidRate      = errors.New("interest rate must not be negative")
	ErrInvalidTerm      = errors.New("loan term must cover at least one repayment period")
	ErrInvalidFrequency = errors.New("invalid repayment frequency")
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Terms are the inputs that determine a loan's repayment schedule.
type Terms struct {
	Amount     decimal.Decimal            // principal, > 0
	AnnualRate decimal.Decimal            // percent, >= 0
	TermMonths int                        // >= 1
	StartDate  time.Time
	Frequency  models.RepaymentFrequency
}

// TermsOf extracts the schedule-determining fields of a loan.
func TermsOf(l models.Loan) Terms {
	return Terms{
		Amount:     l.Amount,
		AnnualRate: l.InterestRate,
		TermMonths: l.TermMonths,
		StartDate:  l.StartDate,
		Frequency:  l.Frequency,
	}
}

// Equal reports whether two term sets produce the same schedule. Edits to any
// other loan field must not trigger regeneration.
func (t Terms) Equal(o Terms) bool {
	return t.Amount.Equal(o.Amount) &&
		t.AnnualRate.Equal(o.AnnualRate) &&
		t.TermMonths == o.TermMonths &&
		t.StartDate.Equal(o.StartDate) &&
		t.Frequency == o.Frequency
}

func (t Terms) validate() error {
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidPrincipal
	}
	if t.AnnualRate.IsNegative() {
		return ErrInvalidRate
	}
	if !t.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if t.TermMonths < 1 || t.TermMonths/t.Frequency.PeriodMonths() < 1 {
		return ErrInvalidTerm
	}
	return nil
}

// monthlyRate is the per-month rate derived from the annual percentage.
func (t Terms) monthlyRate() decimal.Decimal {
	return t.AnnualRate.Div(hundred).Div(twelve)
}

// periodRate is the simple rate for one repayment period of k months.
func (t Terms) periodRate() decimal.Decimal {
	k := decimal.NewFromInt(int64(t.Frequency.PeriodMonths()))
	return t.AnnualRate.Div(hundred).Mul(k).Div(twelve)
}

// PaymentAmount computes the level payment for one repayment period, rounded
// to the cent.
//
// For the amortizing frequencies this is the standard monthly annuity payment
// scaled by the period length in months; at a zero rate it degenerates to
// equal principal installments. For bullet loans it is the periodic
// interest-only payment.
func PaymentAmount(t Terms) (decimal.Decimal, error) {
	if err := t.validate(); err != nil {
		return decimal.Zero, err
	}
	k := t.Frequency.PeriodMonths()
	if t.Frequency == models.FrequencyBullet {
		return t.Amount.Mul(t.periodRate()).Round(2), nil
	}
	r := t.monthlyRate()
	if r.IsZero() {
		n := int64(t.TermMonths / k)
		return t.Amount.Div(decimal.NewFromInt(n)).Round(2), nil
	}
	// monthly = P * r / (1 - (1+r)^-term), then scaled by k months
	growth := decimal.NewFromInt(1).Add(r).Pow(decimal.NewFromInt(int64(t.TermMonths)))
	denom := decimal.NewFromInt(1).Sub(decimal.NewFromInt(1).Div(growth))
	monthly := t.Amount.Mul(r).Div(denom)
	return monthly.Mul(decimal.NewFromInt(int64(k))).Round(2), nil
}

// Schedule generates the full repayment schedule for the given terms.
//
// The walk advances one period of k months at a time from the start date,
// charging interest on the running balance and clamping the principal
// component so it never exceeds what is left; the final entry always drives
// the balance to exactly zero. A term not evenly divisible by the period
// length truncates to whole periods.
func Schedule(t Terms) ([]models.ScheduledPayment, error) {
	payment, err := PaymentAmount(t)
	if err != nil {
		return nil, err
	}
	k := t.Frequency.PeriodMonths()
	n := t.TermMonths / k
	rate := t.periodRate()
	bullet := t.Frequency == models.FrequencyBullet

	schedule := make([]models.ScheduledPayment, 0, n)
	balance := t.Amount
	for i := 1; i <= n; i++ {
		interest := balance.Mul(rate).Round(2)
		var principal decimal.Decimal
		switch {
		case bullet && i < n:
			principal = decimal.Zero
		case bullet || i == n:
			principal = balance
		default:
			principal = payment.Sub(interest)
			if principal.GreaterThan(balance) {
				principal = balance
			}
		}
		balance = balance.Sub(principal)
		schedule = append(schedule, models.ScheduledPayment{
			Date:             t.StartDate.AddDate(0, k*i, 0),
			TotalPayment:     principal.Add(interest),
			PrincipalPayment: principal,
			InterestPayment:  interest,
			RemainingBalance: balance,
			IsPaid:           false,
		})
		if balance.IsZero() {
			break
		}
	}
	return schedule, nil
}

// Amortize regenerates a loan's derived fields from its terms: the repayment
// schedule, the regular payment amount, the maturity date, and the remaining
// balance. The cumulative paid trackers are reset because they record actual
// payments, not the schedule's projections.
func Amortize(l *models.Loan) error {
	terms := TermsOf(*l)
	schedule, err := Schedule(terms)
	if err != nil {
		return err
	}
	payment, err := PaymentAmount(terms)
	if err != nil {
		return err
	}
	l.RepaymentSchedule = schedule
	l.PaymentAmount = payment
	l.EndDate = l.StartDate.AddDate(0, l.TermMonths, 0)
	l.RemainingBalance = l.Amount
	l.TotalInterestPaid = decimal.Zero
	l.TotalPrincipalPaid = decimal.Zero
	return nil
}
