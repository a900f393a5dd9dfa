package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrProjectNameEmpty      = errors.New("project name is required")
	ErrProjectBudgetMismatch = errors.New("cost breakdown does not sum to total budget")
	ErrInvestorNameEmpty     = errors.New("investor name is required")
	ErrInvestorCategory      = errors.New("invalid investor category")
	ErrInvestmentAmount      = errors.New("investment amount must be positive")
	ErrDistributionAmount    = errors.New("distribution amount must be positive")
	ErrDistributionKind      = errors.New("invalid distribution kind")
	ErrTransactionType       = errors.New("invalid transaction type")
	ErrTransactionAmount     = errors.New("transaction amount must be positive")
)

// Meta carries the identity and timestamp contract shared by every entity.
// The store assigns all three fields; callers never set them.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Meta) EntityID() string         { return m.ID }
func (m *Meta) SetEntityID(id string)    { m.ID = id }
func (m *Meta) Created() time.Time       { return m.CreatedAt }
func (m *Meta) StampCreated(t time.Time) { m.CreatedAt = t; m.UpdatedAt = t }
func (m *Meta) StampUpdated(t time.Time) { m.UpdatedAt = t }

// CostBreakdown itemizes a project budget. The components must sum to the
// project's TotalBudget.
type CostBreakdown struct {
	Land         decimal.Decimal `json:"land"`
	Construction decimal.Decimal `json:"construction"`
	Permits      decimal.Decimal `json:"permits"`
	Marketing    decimal.Decimal `json:"marketing"`
	Legal        decimal.Decimal `json:"legal"`
	Financing    decimal.Decimal `json:"financing"`
	Other        decimal.Decimal `json:"other"`
}

func (c CostBreakdown) Total() decimal.Decimal {
	return c.Land.Add(c.Construction).Add(c.Permits).Add(c.Marketing).
		Add(c.Legal).Add(c.Financing).Add(c.Other)
}

// FinancialSummary is a derived view over a project's loans, investments and
// transactions. It is recomputed on demand, never authoritative.
type FinancialSummary struct {
	TotalIncome       decimal.Decimal `json:"total_income"`
	TotalExpenses     decimal.Decimal `json:"total_expenses"`
	CashFlow          decimal.Decimal `json:"cash_flow"`
	OutstandingDebt   decimal.Decimal `json:"outstanding_debt"`
	LoanToValue       decimal.Decimal `json:"loan_to_value"`
	DebtCoverageRatio decimal.Decimal `json:"debt_coverage_ratio"`
	PortfolioROI      decimal.Decimal `json:"portfolio_roi"`
}

type Project struct {
	Meta
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Address       string           `json:"address"`
	Status        string           `json:"status"` // e.g. "planning", "active", "completed"
	TotalBudget   decimal.Decimal  `json:"total_budget"`
	CostBreakdown CostBreakdown    `json:"cost_breakdown"`
	Summary       FinancialSummary `json:"financial_summary"`
}

func (Project) Kind() string { return "projects" }

func (p Project) Clone() Project { return p }

func (p *Project) Validate() error {
	if p.Name == "" {
		return ErrProjectNameEmpty
	}
	if !p.CostBreakdown.Total().Equal(p.TotalBudget) {
		return ErrProjectBudgetMismatch
	}
	return nil
}

type RepaymentFrequency string

const (
	FrequencyMonthly    RepaymentFrequency = "monthly"
	FrequencyQuarterly  RepaymentFrequency = "quarterly"
	FrequencySemiAnnual RepaymentFrequency = "semi-annual"
	FrequencyAnnual     RepaymentFrequency = "annual"
	FrequencyBullet     RepaymentFrequency = "bullet"
)

// PeriodMonths returns the number of months between scheduled payments.
// Bullet loans pay interest monthly with the principal due at maturity.
func (f RepaymentFrequency) PeriodMonths() int {
	switch f {
	case FrequencyMonthly, FrequencyBullet:
		return 1
	case FrequencyQuarterly:
		return 3
	case FrequencySemiAnnual:
		return 6
	case FrequencyAnnual:
		return 12
	}
	return 0
}

func (f RepaymentFrequency) Valid() bool { return f.PeriodMonths() > 0 }

// ScheduledPayment is one entry of a loan's repayment schedule.
type ScheduledPayment struct {
	Date             time.Time       `json:"date"`
	TotalPayment     decimal.Decimal `json:"total_payment"`
	PrincipalPayment decimal.Decimal `json:"principal_payment"`
	InterestPayment  decimal.Decimal `json:"interest_payment"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	IsPaid           bool            `json:"is_paid"`
}

type Loan struct {
	Meta
	ProjectID          string             `json:"project_id"`
	Lender             string             `json:"lender"`
	Amount             decimal.Decimal    `json:"amount"`
	InterestRate       decimal.Decimal    `json:"interest_rate"` // annual, percent
	TermMonths         int                `json:"term_months"`
	StartDate          time.Time          `json:"start_date"`
	EndDate            time.Time          `json:"end_date"`
	Frequency          RepaymentFrequency `json:"repayment_frequency"`
	RemainingBalance   decimal.Decimal    `json:"remaining_balance"`
	PaymentAmount      decimal.Decimal    `json:"payment_amount"`
	TotalInterestPaid  decimal.Decimal    `json:"total_interest_paid"`
	TotalPrincipalPaid decimal.Decimal    `json:"total_principal_paid"`
	RepaymentSchedule  []ScheduledPayment `json:"repayment_schedule"`
}

func (Loan) Kind() string { return "loans" }

func (l Loan) Clone() Loan {
	cp := l
	cp.RepaymentSchedule = append([]ScheduledPayment(nil), l.RepaymentSchedule...)
	return cp
}

type InvestorCategory string

const (
	InvestorIndividual  InvestorCategory = "individual"
	InvestorCompany     InvestorCategory = "company"
	InvestorInstitution InvestorCategory = "institution"
)

func (c InvestorCategory) Valid() bool {
	switch c {
	case InvestorIndividual, InvestorCompany, InvestorInstitution:
		return true
	}
	return false
}

type Investor struct {
	Meta
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Phone    string           `json:"phone"`
	Category InvestorCategory `json:"category"`
}

func (Investor) Kind() string { return "investors" }

func (i Investor) Clone() Investor { return i }

func (i *Investor) Validate() error {
	if i.Name == "" {
		return ErrInvestorNameEmpty
	}
	if !i.Category.Valid() {
		return ErrInvestorCategory
	}
	return nil
}

type DistributionKind string

const (
	DistributionDividend      DistributionKind = "dividend"
	DistributionCapitalReturn DistributionKind = "capital-return"
	DistributionProfitShare   DistributionKind = "profit-share"
)

func (k DistributionKind) Valid() bool {
	switch k {
	case DistributionDividend, DistributionCapitalReturn, DistributionProfitShare:
		return true
	}
	return false
}

// Distribution is a payment made from an investment back to its investor.
type Distribution struct {
	Date   time.Time        `json:"date"`
	Amount decimal.Decimal  `json:"amount"`
	Kind   DistributionKind `json:"kind"`
}

func (d Distribution) Validate() error {
	if d.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrDistributionAmount
	}
	if !d.Kind.Valid() {
		return ErrDistributionKind
	}
	return nil
}

type Investment struct {
	Meta
	ProjectID        string          `json:"project_id"`
	InvestorID       string          `json:"investor_id"`
	Amount           decimal.Decimal `json:"amount"`
	EquityPercentage decimal.Decimal `json:"equity_percentage"`
	ExpectedROI      decimal.Decimal `json:"expected_roi"`
	Distributions    []Distribution  `json:"distributions"`
	TotalDistributed decimal.Decimal `json:"total_distributed"`
	ActualReturns    decimal.Decimal `json:"actual_returns"`
}

func (Investment) Kind() string { return "investments" }

func (i Investment) Clone() Investment {
	cp := i
	cp.Distributions = append([]Distribution(nil), i.Distributions...)
	return cp
}

func (i *Investment) Validate() error {
	if i.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvestmentAmount
	}
	return nil
}

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Transaction is a flat signed record against a project. The related-entity
// fields are weak references; existence of the target is not enforced.
type Transaction struct {
	Meta
	ProjectID         string          `json:"project_id"`
	Type              TransactionType `json:"type"`
	Category          string          `json:"category"`
	Amount            decimal.Decimal `json:"amount"`
	Date              time.Time       `json:"date"`
	Description       string          `json:"description"`
	RelatedEntityType string          `json:"related_entity_type,omitempty"`
	RelatedEntityID   string          `json:"related_entity_id,omitempty"`
}

func (Transaction) Kind() string { return "transactions" }

func (t Transaction) Clone() Transaction { return t }

func (t *Transaction) Validate() error {
	if t.Type != TransactionIncome && t.Type != TransactionExpense {
		return ErrTransactionType
	}
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrTransactionAmount
	}
	return nil
}

type User struct {
	Meta
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (User) Kind() string { return "users" }

func (u User) Clone() User { return u }

type Document struct {
	Meta
	ProjectID   string `json:"project_id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Path        string `json:"path"`
	SizeBytes   int64  `json:"size_bytes"`
}

func (Document) Kind() string { return "documents" }

func (d Document) Clone() Document { return d }
