package deal

import (
	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/normalize"
)

// Refinance derives the post-works refinance structure. The gross
// development value is the asking price and the first charge is lent at a
// fixed 75% loan-to-value.
func (c *Calculator) Refinance(in Input, m *Metrics) {
	m.Completed = m.Completed.With(StageRefinance)
	m.GrossDevelopmentValue = normalize.Amount(in.AskingPrice)
	m.Uplift = m.GrossDevelopmentValue - normalize.Amount(in.PurchasePrice)
	m.FirstChargeLending = m.GrossDevelopmentValue * constants.FirstChargeLTV
	m.FirstChargeLTV = constants.FirstChargeLTVPercent

	totalInvestment := c.TotalInvestment(in, *m)
	c.checkCapitalIn(totalInvestment, *m)

	m.CapitalLeftIn = totalInvestment - m.FirstChargeLending
	m.CapitalReleased = c.profile.CapitalReleased(totalInvestment, m.CapitalLeftIn, m.FirstChargeLending)
}
