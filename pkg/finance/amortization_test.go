package finance

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avendale/groundwork/pkg/models"
)

func monthlyTerms(amount float64, rate float64, months int) Terms {
	return Terms{
		Amount:     decimal.NewFromFloat(amount),
		AnnualRate: decimal.NewFromFloat(rate),
		TermMonths: months,
		StartDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Frequency:  models.FrequencyMonthly,
	}
}

func TestZeroRateAmortization(t *testing.T) {
	schedule, err := Schedule(monthlyTerms(120000, 0, 12))
	if err != nil {
		t.Fatalf("Failed to generate schedule: %v", err)
	}

	if len(schedule) != 12 {
		t.Fatalf("Expected 12 entries, got %d", len(schedule))
	}
	expected := decimal.NewFromInt(10000)
	for i, entry := range schedule {
		if !entry.PrincipalPayment.Equal(expected) {
			t.Errorf("Entry %d: expected principal 10000, got %s", i, entry.PrincipalPayment)
		}
		if !entry.InterestPayment.IsZero() {
			t.Errorf("Entry %d: expected zero interest, got %s", i, entry.InterestPayment)
		}
	}
	if !schedule[11].RemainingBalance.IsZero() {
		t.Errorf("Expected final balance 0, got %s", schedule[11].RemainingBalance)
	}
}

func TestAmortizationClosure(t *testing.T) {
	amount := decimal.NewFromInt(250000)
	terms := monthlyTerms(250000, 5.5, 360)

	schedule, err := Schedule(terms)
	if err != nil {
		t.Fatalf("Failed generate schedule: %v", err)
	}

	principalSum := decimal.Zero
	for _, entry := range schedule {
		principalSum = principalSum.Add(entry.PrincipalPayment)
	}
	if !principalSum.Equal(amount) {
		t.Errorf("Expected principal components to sum to %s, got %s", amount, principalSum)
	}
	last := schedule[len(schedule)-1]
	if !last.RemainingBalance.IsZero() {
		t.Errorf("Expected final balance 0, got %s", last.RemainingBalance)
	}
}

func TestBulletLoan(t *testing.T) {
	terms := monthlyTerms(100000, 6, 24)
	terms.Frequency = models.FrequencyBullet

	schedule, err := Schedule(terms)
	if err != nil {
		t.Fatalf("Failed to generate schedule: %v", err)
	}

	if len(schedule) != 24 {
		t.Fatalf("Expected 24 entries, got %d", len(schedule))
	}
	interest := decimal.NewFromInt(500) // 100000 * 0.06 / 12
	for i, entry := range schedule[:23] {
		if !entry.PrincipalPayment.IsZero() {
			t.Errorf("Entry %d: expected zero principal, got %s", i, entry.PrincipalPayment)
		}
		if !entry.InterestPayment.Equal(interest) {
			t.Errorf("Entry %d: expected interest 500, got %s", i, entry.InterestPayment)
		}
		if !entry.RemainingBalance.Equal(terms.Amount) {
			t.Errorf("Entry %d: expected untouched balance, got %s", i, entry.RemainingBalance)
		}
	}
	last := schedule[23]
	if !last.PrincipalPayment.Equal(terms.Amount) {
		t.Errorf("Expected final principal %s, got %s", terms.Amount, last.PrincipalPayment)
	}
	if !last.InterestPayment.Equal(interest) {
		t.Errorf("Expected final interest 500, got %s", last.InterestPayment)
	}
	if !last.RemainingBalance.IsZero() {
		t.Errorf("Expected final balance 0, got %s", last.RemainingBalance)
	}
}

func TestQuarterlySchedule(t *testing.T) {
	terms := monthlyTerms(100000, 8, 24)
	terms.Frequency = models.FrequencyQuarterly

	schedule, err := Schedule(terms)
	if err != nil {
		t.Fatalf("Failed to generate schedule: %v", err)
	}

	if len(schedule) != 8 {
		t.Fatalf("Expected 8 quarterly entries, got %d", len(schedule))
	}
	// Entries advance three months at a time from the start date.
	wantDate := terms.StartDate.AddDate(0, 3, 0)
	if !schedule[0].Date.Equal(wantDate) {
		t.Errorf("Expected first payment on %s, got %s", wantDate, schedule[0].Date)
	}
	if !schedule[7].RemainingBalance.IsZero() {
		t.Errorf("Expected final balance 0, got %s", schedule[7].RemainingBalance)
	}
}

func TestTermTruncatesToWholePeriods(t *testing.T) {
	terms := monthlyTerms(60000, 4, 14)
	terms.Frequency = models.FrequencyQuarterly

	schedule, err := Schedule(terms)
	if err != nil {
		t.Fatalf("Failed to generate schedule: %v", err)
	}
	if len(schedule) != 4 {
		t.Fatalf("Expected 14 months to truncate to 4 quarters, got %d entries", len(schedule))
	}
	if !schedule[3].RemainingBalance.IsZero() {
		t.Errorf("Expected final balance 0, got %s", schedule[3].RemainingBalance)
	}
}

func TestScheduleValidation(t *testing.T) {
	cases := []struct {
		name  string
		mod   func(*Terms)
		want  error
	}{
		{"zero principal", func(tr *Terms) { tr.Amount = decimal.Zero }, ErrInvalidPrincipal},
		{"negative principal", func(tr *Terms) { tr.Amount = decimal.NewFromInt(-1) }, ErrInvalidPrincipal},
		{"negative rate", func(tr *Terms) { tr.AnnualRate = decimal.NewFromInt(-5) }, ErrInvalidRate},
		{"zero term", func(tr *Terms) { tr.TermMonths = 0 }, ErrInvalidTerm},
		{"term shorter than period", func(tr *Terms) {
			tr.TermMonths = 6
			tr.Frequency = models.FrequencyAnnual
		}, ErrInvalidTerm},
		{"bad frequency", func(tr *Terms) { tr.Frequency = "weekly" }, ErrInvalidFrequency},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			terms := monthlyTerms(100000, 5, 12)
			tc.mod(&terms)
			if _, err := Schedule(terms); !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAmortizeResetsDerivedFields(t *testing.T) {
	loan := models.Loan{
		Amount:             decimal.NewFromInt(120000),
		InterestRate:       decimal.Zero,
		TermMonths:         12,
		StartDate:          time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Frequency:          models.FrequencyMonthly,
		TotalInterestPaid:  decimal.NewFromInt(777),
		TotalPrincipalPaid: decimal.NewFromInt(888),
	}
	if err := Amortize(&loan); err != nil {
		t.Fatalf("Failed to amortize: %v", err)
	}

	if !loan.PaymentAmount.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Expected payment 10000, got %s", loan.PaymentAmount)
	}
	if !loan.RemainingBalance.Equal(loan.Amount) {
		t.Errorf("Expected remaining balance %s, got %s", loan.Amount, loan.RemainingBalance)
	}
	if !loan.TotalInterestPaid.IsZero() || !loan.TotalPrincipalPaid.IsZero() {
		t.Error("Expected cumulative trackers reset to zero")
	}
	wantEnd := loan.StartDate.AddDate(0, 12, 0)
	if !loan.EndDate.Equal(wantEnd) {
		t.Errorf("Expected end date %s, got %s", wantEnd, loan.EndDate)
	}
}

func TestTermsEqualIgnoresUnrelatedFields(t *testing.T) {
	a := models.Loan{
		Amount:       decimal.NewFromInt(50000),
		InterestRate: decimal.NewFromInt(5),
		TermMonths:   24,
		StartDate:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Frequency:    models.FrequencyMonthly,
		Lender:       "First Bank",
	}
	b := a
	b.Lender = "Second Bank"
	b.RemainingBalance = decimal.NewFromInt(40000)
	if !TermsOf(a).Equal(TermsOf(b)) {
		t.Error("Unrelated field edits must not change the terms")
	}

	c := a
	c.InterestRate = decimal.NewFromInt(6)
	if TermsOf(a).Equal(TermsOf(c)) {
		t.Error("Rate change must change the terms")
	}
}
