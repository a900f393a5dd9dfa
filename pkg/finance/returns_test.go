package finance

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avendale/groundwork/pkg/models"
)

func TestComputeReturn(t *testing.T) {
	inv := models.Investment{
		Amount:      decimal.NewFromInt(10000),
		ExpectedROI: decimal.NewFromInt(25),
		Distributions: []models.Distribution{
			{Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(1000), Kind: models.DistributionDividend},
			{Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(500), Kind: models.DistributionProfitShare},
		},
	}

	ret, err := ComputeReturn(inv)
	if err != nil {
		t.Fatalf("Failed to compute return: %v", err)
	}

	if !ret.TotalDistributed.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Expected total distributed 1500, got %s", ret.TotalDistributed)
	}
	if !ret.RealizedROI.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Expected realized ROI 15, got %s", ret.RealizedROI)
	}
	if !ret.UnrealizedROI.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected unrealized ROI 10, got %s", ret.UnrealizedROI)
	}
}

func TestComputeReturnNoDistributions(t *testing.T) {
	inv := models.Investment{
		Amount:      decimal.NewFromInt(5000),
		ExpectedROI: decimal.NewFromInt(12),
	}

	ret, err := ComputeReturn(inv)
	if err != nil {
		t.Fatalf("Failed to compute return: %v", err)
	}
	if !ret.TotalDistributed.IsZero() || !ret.RealizedROI.IsZero() {
		t.Errorf("Expected zero realized return, got %s / %s", ret.TotalDistributed, ret.RealizedROI)
	}
	if !ret.UnrealizedROI.Equal(inv.ExpectedROI) {
		t.Errorf("Expected unrealized ROI %s, got %s", inv.ExpectedROI, ret.UnrealizedROI)
	}
}

func TestComputeReturnInvalidAmount(t *testing.T) {
	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-100)} {
		inv := models.Investment{Amount: amount}
		if _, err := ComputeReturn(inv); !errors.Is(err, ErrInvalidInvestmentAmount) {
			t.Errorf("Amount %s: expected validation error, got %v", amount, err)
		}
	}
}
