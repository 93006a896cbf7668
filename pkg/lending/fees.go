// Package lending computes lender and broker charges on an acquisition loan.
package lending

import (
	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/shopspring/decimal"
)

// FixedFee is a flat charge levied regardless of the loan size.
type FixedFee struct {
	Name   string
	Amount decimal.Decimal
}

// FeeSchedule describes how lending and brokerage fees are charged.
type FeeSchedule struct {
	LTV             decimal.Decimal
	FixedFees       []FixedFee
	ArrangementRate decimal.Decimal
	BrokerageRate   decimal.Decimal
}

// Breakdown itemises the fees for one purchase price.
type Breakdown struct {
	LoanAmount  float64
	Fixed       float64
	Arrangement float64
	Brokerage   float64
	Total       float64
}

// DefaultFeeSchedule returns the fee structure used for international investors.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		LTV: decimal.NewFromFloat(constants.FirstChargeLTV),
		FixedFees: []FixedFee{
			{Name: "valuation", Amount: decimal.NewFromInt(600)},
			{Name: "lender legal", Amount: decimal.NewFromInt(500)},
			{Name: "funds transfer", Amount: decimal.NewFromInt(350)},
			{Name: "broker", Amount: decimal.NewFromInt(1500)},
		},
		ArrangementRate: decimal.RequireFromString("0.02"),
		BrokerageRate:   decimal.RequireFromString("0.01"),
	}
}

// FixedTotal sums the flat charges.
func (s FeeSchedule) FixedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, fee := range s.FixedFees {
		total = total.Add(fee.Amount)
	}
	return total
}

// Calculate returns the fee breakdown for a purchase price. A non-positive
// price incurs no fees. The total is rounded to two decimals.
func (s FeeSchedule) Calculate(price float64) Breakdown {
	if price <= 0 {
		return Breakdown{}
	}
	loan := decimal.NewFromFloat(price).Mul(s.LTV)
	fixed := s.FixedTotal()
	arrangement := loan.Mul(s.ArrangementRate)
	brokerage := loan.Mul(s.BrokerageRate)
	total := fixed.Add(arrangement).Add(brokerage).Round(2)

	return Breakdown{
		LoanAmount:  loan.InexactFloat64(),
		Fixed:       fixed.InexactFloat64(),
		Arrangement: arrangement.InexactFloat64(),
		Brokerage:   brokerage.InexactFloat64(),
		Total:       total.InexactFloat64(),
	}
}

// Total returns only the rounded total fee for a purchase price.
func (s FeeSchedule) Total(price float64) float64 {
	return s.Calculate(price).Total
}
