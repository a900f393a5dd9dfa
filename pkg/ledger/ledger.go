// Package ledger implements the business operations over the entity stores:
// loan lifecycle with schedule generation, investment distributions, and
// project-level financial summaries.
package ledger

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/avendale/groundwork/pkg/finance"
	"github.com/avendale/groundwork/pkg/models"
	"github.com/avendale/groundwork/pkg/store"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "ledger").Logger()

var ErrScheduleSettled = errors.New("loan has no unpaid scheduled payments")

// Ledger handles the business logic for projects, loans, investments and
// transactions.
type Ledger struct {
	projects     store.Repository[models.Project]
	loans        store.Repository[models.Loan]
	investors    store.Repository[models.Investor]
	investments  store.Repository[models.Investment]
	transactions store.Repository[models.Transaction]
}

// NewLedger resolves every repository the ledger needs from the factory.
func NewLedger(f *store.Factory) (*Ledger, error) {
	projects, err := f.Projects()
	if err != nil {
		return nil, fmt.Errorf("failed to construct project repository: %w", err)
	}
	loans, err := f.Loans()
	if err != nil {
		return nil, fmt.Errorf("failed to construct loan repository: %w", err)
	}
	investors, err := f.Investors()
	if err != nil {
		return nil, fmt.Errorf("failed to construct investor repository: %w", err)
	}
	investments, err := f.Investments()
	if err != nil {
		return nil, fmt.Errorf("failed to construct investment repository: %w", err)
	}
	transactions, err := f.Transactions()
	if err != nil {
		return nil, fmt.Errorf("failed to construct transaction repository: %w", err)
	}
	return &Ledger{
		projects:     projects,
		loans:        loans,
		investors:    investors,
		investments:  investments,
		transactions: transactions,
	}, nil
}

// Plain CRUD passes through to the repositories.

func (l *Ledger) Projects() store.Repository[models.Project]         { return l.projects }
func (l *Ledger) Loans() store.Repository[models.Loan]               { return l.loans }
func (l *Ledger) Investors() store.Repository[models.Investor]       { return l.investors }
func (l *Ledger) Investments() store.Repository[models.Investment]   { return l.investments }
func (l *Ledger) Transactions() store.Repository[models.Transaction] { return l.transactions }

// CreateProject validates and stores a project.
func (l *Ledger) CreateProject(p models.Project) (models.Project, error) {
	if err := p.Validate(); err != nil {
		return models.Project{}, err
	}
	return l.projects.Create(p)
}

// CreateLoan generates the repayment schedule from the loan terms and stores
// the loan. Invalid terms are rejected before anything is persisted.
func (l *Ledger) CreateLoan(loan models.Loan) (models.Loan, error) {
	if err := finance.Amortize(&loan); err != nil {
		return models.Loan{}, err
	}
	created, err := l.loans.Create(loan)
	if err != nil {
		return models.Loan{}, fmt.Errorf("failed to store loan: %w", err)
	}
	logger.Info().Str("loan_id", created.ID).Str("project_id", created.ProjectID).
		Int("periods", len(created.RepaymentSchedule)).Msg("loan created")
	return created, nil
}

// LoanPatch is a partial update to a loan. Nil fields are left unchanged.
type LoanPatch struct {
	ProjectID    *string                    `json:"project_id"`
	Lender       *string                    `json:"lender"`
	Amount       *decimal.Decimal           `json:"amount"`
	InterestRate *decimal.Decimal           `json:"interest_rate"`
	TermMonths   *int                       `json:"term_months"`
	StartDate    *time.Time                 `json:"start_date"`
	Frequency    *models.RepaymentFrequency `json:"repayment_frequency"`
}

func (p LoanPatch) apply(loan *models.Loan) {
	if p.ProjectID != nil {
		loan.ProjectID = *p.ProjectID
	}
	if p.Lender != nil {
		loan.Lender = *p.Lender
	}
	if p.Amount != nil {
		loan.Amount = *p.Amount
	}
	if p.InterestRate != nil {
		loan.InterestRate = *p.InterestRate
	}
	if p.TermMonths != nil {
		loan.TermMonths = *p.TermMonths
	}
	if p.StartDate != nil {
		loan.StartDate = *p.StartDate
	}
	if p.Frequency != nil {
		loan.Frequency = *p.Frequency
	}
}

// UpdateLoan merges the patch into the loan. When any schedule-determining
// term changed, the repayment schedule is regenerated and the cumulative paid
// trackers reset; edits to other fields leave the schedule alone.
func (l *Ledger) UpdateLoan(id string, patch LoanPatch) (models.Loan, bool, error) {
	return l.loans.Update(id, func(loan *models.Loan) error {
		before := finance.TermsOf(*loan)
		patch.apply(loan)
		if finance.TermsOf(*loan).Equal(before) {
			return nil
		}
		return finance.Amortize(loan)
	})
}

// RecordLoanPayment applies the next unpaid scheduled payment: the entry is
// marked paid, the balance and cumulative trackers advance, and a matching
// expense Transaction is recorded with a weak reference back to the loan.
// The loan update and the transaction write are two independent operations;
// there is no cross-entity atomicity.
func (l *Ledger) RecordLoanPayment(loanID string, paidAt time.Time) (models.Transaction, bool, error) {
	var entry models.ScheduledPayment
	loan, ok, err := l.loans.Update(loanID, func(loan *models.Loan) error {
		for i := range loan.RepaymentSchedule {
			if loan.RepaymentSchedule[i].IsPaid {
				continue
			}
			loan.RepaymentSchedule[i].IsPaid = true
			entry = loan.RepaymentSchedule[i]
			loan.RemainingBalance = entry.RemainingBalance
			loan.TotalInterestPaid = loan.TotalInterestPaid.Add(entry.InterestPayment)
			loan.TotalPrincipalPaid = loan.TotalPrincipalPaid.Add(entry.PrincipalPayment)
			return nil
		}
		return ErrScheduleSettled
	})
	if err != nil || !ok {
		return models.Transaction{}, ok, err
	}

	tx, err := l.transactions.Create(models.Transaction{
		ProjectID:         loan.ProjectID,
		Type:              models.TransactionExpense,
		Category:          "loan-payment",
		Amount:            entry.TotalPayment,
		Date:              paidAt,
		Description:       fmt.Sprintf("scheduled payment on loan %s", loanID),
		RelatedEntityType: "loan",
		RelatedEntityID:   loanID,
	})
	if err != nil {
		return models.Transaction{}, true, fmt.Errorf("failed to store payment transaction: %w", err)
	}
	logger.Info().Str("loan_id", loanID).Str("balance", loan.RemainingBalance.String()).
		Msg("scheduled payment applied")
	return tx, true, nil
}

// CreateInvestor validates and stores an investor.
func (l *Ledger) CreateInvestor(inv models.Investor) (models.Investor, error) {
	if err := inv.Validate(); err != nil {
		return models.Investor{}, err
	}
	return l.investors.Create(inv)
}

// CreateInvestment validates and stores an investment with an empty
// distribution history.
func (l *Ledger) CreateInvestment(inv models.Investment) (models.Investment, error) {
	if err := inv.Validate(); err != nil {
		return models.Investment{}, err
	}
	inv.Distributions = nil
	inv.TotalDistributed = decimal.Zero
	inv.ActualReturns = decimal.Zero
	return l.investments.Create(inv)
}

// RecordDistribution appends a distribution to an investment. History is
// append-only: totalDistributed only ever grows.
func (l *Ledger) RecordDistribution(investmentID string, d models.Distribution) (models.Investment, bool, error) {
	if err := d.Validate(); err != nil {
		return models.Investment{}, false, err
	}
	return l.investments.Update(investmentID, func(inv *models.Investment) error {
		inv.Distributions = append(inv.Distributions, d)
		inv.TotalDistributed = inv.TotalDistributed.Add(d.Amount)
		inv.ActualReturns = inv.ActualReturns.Add(d.Amount)
		return nil
	})
}

// InvestmentReturn computes the realized-return view for one investment.
func (l *Ledger) InvestmentReturn(investmentID string) (finance.Return, bool, error) {
	inv, ok, err := l.investments.Get(investmentID)
	if err != nil || !ok {
		return finance.Return{}, ok, err
	}
	r, err := finance.ComputeReturn(inv)
	if err != nil {
		return finance.Return{}, true, err
	}
	return r, true, nil
}

// RecordTransaction validates and stores a transaction. Related-entity
// references are weak: the target is not checked.
func (l *Ledger) RecordTransaction(tx models.Transaction) (models.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return models.Transaction{}, err
	}
	return l.transactions.Create(tx)
}

// ProjectSummary recomputes the project's financial summary from its current
// loans, investments and transactions. Nothing is cached or written back;
// the stored summary field on the project is only a snapshot for display.
func (l *Ledger) ProjectSummary(projectID string) (models.FinancialSummary, bool, error) {
	project, ok, err := l.projects.Get(projectID)
	if err != nil || !ok {
		return models.FinancialSummary{}, ok, err
	}

	loans, err := l.loans.List(store.ListOptions{})
	if err != nil {
		return models.FinancialSummary{}, true, err
	}
	investments, err := l.investments.List(store.ListOptions{})
	if err != nil {
		return models.FinancialSummary{}, true, err
	}
	transactions, err := l.transactions.List(store.ListOptions{})
	if err != nil {
		return models.FinancialSummary{}, true, err
	}

	projectLoans := make([]models.Loan, 0)
	for _, loan := range loans.Data {
		if loan.ProjectID == projectID {
			projectLoans = append(projectLoans, loan)
		}
	}
	projectInvestments := make([]models.Investment, 0)
	for _, inv := range investments.Data {
		if inv.ProjectID == projectID {
			projectInvestments = append(projectInvestments, inv)
		}
	}
	projectTxs := make([]models.Transaction, 0)
	for _, tx := range transactions.Data {
		if tx.ProjectID == projectID {
			projectTxs = append(projectTxs, tx)
		}
	}

	return finance.Summarize(project, projectLoans, projectInvestments, projectTxs), true, nil
}
