package finance

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/avendale/groundwork/pkg/models"
)

var ErrInvalidInvestmentAmount = errors.New("investment amount must be positive")

// Return is the realized-return view of a single investment.
type Return struct {
	TotalDistributed decimal.Decimal `json:"total_distributed"`
	RealizedROI      decimal.Decimal `json:"realized_roi"`
	UnrealizedROI    decimal.Decimal `json:"unrealized_roi"`
}

// ComputeReturn derives the return metrics of an investment from its
// distribution history. Distributions are taken as-is: ordering and
// uniqueness are the caller's responsibility.
func ComputeReturn(inv models.Investment) (Return, error) {
	if inv.Amount.LessThanOrEqual(decimal.Zero) {
		return Return{}, ErrInvalidInvestmentAmount
	}
	total := decimal.Zero
	for _, d := range inv.Distributions {
		total = total.Add(d.Amount)
	}
	realized := total.Div(inv.Amount).Mul(hundred)
	return Return{
		TotalDistributed: total,
		RealizedROI:      realized,
		UnrealizedROI:    inv.ExpectedROI.Sub(realized),
	}, nil
}
