package deal

import (
	"github.com/iwvelando/deal-calculator/pkg/mathutil"
	"github.com/iwvelando/deal-calculator/pkg/normalize"
	"go.uber.org/zap"
)

// StampDuty computes the duty owed on the purchase price for the input's
// property category. Without both a price and a category the duty is 0.
func (c *Calculator) StampDuty(in Input, m *Metrics) {
	c.stampDuty(in, m, c.advisor)
}

func (c *Calculator) stampDuty(in Input, m *Metrics, advisor Advisor) {
	m.Completed = m.Completed.With(StageStampDuty)
	c.guard(StageStampDuty, func() { m.StampDuty = 0 }, func() {
		m.StampDuty = 0
		if !normalize.Present(in.PurchasePrice) {
			c.advise(advisor, StageStampDuty, "enter a purchase price to calculate stamp duty")
			return
		}
		category, ok := in.CategoryTag()
		if !ok {
			c.advise(advisor, StageStampDuty, "select a valid property category to calculate stamp duty (got %q)", in.Category)
			return
		}
		m.StampDuty = c.profile.Schedule.Calculate(normalize.Amount(in.PurchasePrice), category)
	})
}

// LendingFee computes the lending and brokerage fees on the purchase price.
// Variants without a fee schedule always carry a zero fee.
func (c *Calculator) LendingFee(in Input, m *Metrics) {
	m.Completed = m.Completed.With(StageLendingFee)
	c.guard(StageLendingFee, func() { m.LendingFee = 0 }, func() {
		m.LendingFee = 0
		if c.profile.Fees == nil || !normalize.Present(in.PurchasePrice) {
			return
		}
		m.LendingFee = c.profile.Fees.Total(normalize.Amount(in.PurchasePrice))
	})
}

// ProjectManagement charges a share of the renovation cost for managing the works.
func (c *Calculator) ProjectManagement(in Input, m *Metrics) {
	m.Completed = m.Completed.With(StageProjectManagement)
	m.ProjectManagement = normalize.Amount(in.Renovation) * c.profile.ProjectManagementRate
}

// TotalInvestment sums the variant's acquisition cost fields.
func (c *Calculator) TotalInvestment(in Input, m Metrics) float64 {
	total := 0.0
	for _, field := range c.profile.CostFields {
		total += normalize.Amount(field.Value(in, m))
	}
	return total
}

// CapitalIn aggregates the acquisition costs into the total capital deployed.
func (c *Calculator) CapitalIn(in Input, m *Metrics) {
	m.Completed = m.Completed.With(StageCapitalIn)
	m.CapitalIn = c.TotalInvestment(in, *m)
}

// checkCapitalIn logs a defect when the independently summed investment
// disagrees with the aggregated capital in.
func (c *Calculator) checkCapitalIn(totalInvestment float64, m Metrics) {
	if !m.Completed.Has(StageCapitalIn) {
		return
	}
	if !mathutil.WithinTolerance(totalInvestment, m.CapitalIn, 0.005) {
		c.logger.Error("total investment disagrees with capital in",
			zap.String("op", "deal.Calculator.Refinance"),
			zap.String("variant", string(c.profile.Variant)),
			zap.Float64("totalInvestment", totalInvestment),
			zap.Float64("capitalIn", m.CapitalIn),
		)
	}
}
