package finance

import (
	"github.com/shopspring/decimal"

	"github.com/avendale/groundwork/pkg/models"
)

// The aggregations below are pure reductions over a project's loans,
// investments and transactions. Degenerate denominators yield zero rather
// than a division fault, and nothing is cached: the inputs can change
// between calls.

// TotalIncome sums a project's income-typed transactions.
func TotalIncome(txs []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type == models.TransactionIncome {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// TotalExpenses sums a project's expense-typed transactions, which includes
// principal and interest payments recorded against loans.
func TotalExpenses(txs []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type == models.TransactionExpense {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// CashFlow is income minus expenses.
func CashFlow(txs []models.Transaction) decimal.Decimal {
	return TotalIncome(txs).Sub(TotalExpenses(txs))
}

// OutstandingDebt sums the remaining balances across loans.
func OutstandingDebt(loans []models.Loan) decimal.Decimal {
	total := decimal.Zero
	for _, l := range loans {
		total = total.Add(l.RemainingBalance)
	}
	return total
}

// LoanToValue is outstanding debt over the project budget, as a percentage.
func LoanToValue(loans []models.Loan, totalBudget decimal.Decimal) decimal.Decimal {
	if totalBudget.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return OutstandingDebt(loans).Div(totalBudget).Mul(hundred)
}

// DebtCoverageRatio is total revenue over total debt service, where debt
// service is the interest and principal actually paid across loans.
func DebtCoverageRatio(loans []models.Loan, txs []models.Transaction) decimal.Decimal {
	service := decimal.Zero
	for _, l := range loans {
		service = service.Add(l.TotalInterestPaid).Add(l.TotalPrincipalPaid)
	}
	if service.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return TotalIncome(txs).Div(service)
}

// PortfolioROI is total actual returns over total invested capital, as a
// percentage.
func PortfolioROI(investments []models.Investment) decimal.Decimal {
	invested := decimal.Zero
	returned := decimal.Zero
	for _, inv := range investments {
		invested = invested.Add(inv.Amount)
		returned = returned.Add(inv.ActualReturns)
	}
	if invested.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return returned.Div(invested).Mul(hundred)
}

// Summarize combines a project's associated records into its financial
// summary view.
func Summarize(p models.Project, loans []models.Loan, investments []models.Investment, txs []models.Transaction) models.FinancialSummary {
	return models.FinancialSummary{
		TotalIncome:       TotalIncome(txs),
		TotalExpenses:     TotalExpenses(txs),
		CashFlow:          CashFlow(txs),
		OutstandingDebt:   OutstandingDebt(loans),
		LoanToValue:       LoanToValue(loans, p.TotalBudget),
		DebtCoverageRatio: DebtCoverageRatio(loans, txs),
		PortfolioROI:      PortfolioROI(investments),
	}
}
