package deal

import (
	"strings"

	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/format"
	"github.com/iwvelando/deal-calculator/pkg/mathutil"
	"github.com/iwvelando/deal-calculator/pkg/normalize"
)

// Line item and return metric labels.
const (
	LabelCapitalValue     = "Capital Value @ Year 10"
	LabelMortgageLending  = "Mortgage Lending"
	LabelEquityInvestment = "Equity Investment Capital"
	LabelCapitalGain      = "Capital Gain @ Year 10"

	LabelRetainedCapital  = "Retained Capital"
	LabelNetCashFlow      = "Net Cash Flow PA"
	LabelLifetimeCashFlow = "Total Net Lifetime Cash Flow"
	LabelTotalReturn      = "Total Lifetime Return on Capital"
	LabelLifetimeReturn   = "Lifetime Return"
)

// IsPercentageMetric reports whether a return metric carries a percentage
// rather than an amount.
func IsPercentageMetric(metric string) bool {
	return metric == LabelLifetimeReturn ||
		metric == DomesticProfile().YieldLabel ||
		metric == InternationalProfile().YieldLabel
}

// CapitalValueAtHorizon is the asking price compounded over the projection horizon.
func CapitalValueAtHorizon(askingPrice float64) float64 {
	return mathutil.Compound(askingPrice, constants.AnnualGrowthRate, constants.ProjectionYears)
}

func capitalGain(in Input, m Metrics) (value, gain float64) {
	value = CapitalValueAtHorizon(normalize.Amount(in.AskingPrice))
	gain = value - m.FirstChargeLending - m.CapitalLeftIn
	return value, gain
}

func lineItem(label string, amount float64) LineItem {
	rounded := mathutil.RoundWhole(amount)
	return LineItem{Label: label, Amount: rounded, Display: format.Whole(rounded)}
}

// CapitalGain breaks down the projected gain at year 10: the compounded
// value less the mortgage lending and the equity left in. It needs an asking
// price and the refinance figures.
func (c *Calculator) CapitalGain(in Input, m *Metrics) []LineItem {
	return c.capitalGain(in, m, c.advisor)
}

func (c *Calculator) capitalGain(in Input, m *Metrics, advisor Advisor) []LineItem {
	m.Completed = m.Completed.With(StageCapitalGain)
	var items []LineItem
	c.guard(StageCapitalGain, func() { items = nil }, func() {
		if !normalize.Present(in.AskingPrice) {
			c.advise(advisor, StageCapitalGain, "enter an asking price to see capital gain projections")
			return
		}
		value, gain := capitalGain(in, *m)
		items = []LineItem{
			lineItem(LabelCapitalValue, value),
			lineItem(LabelMortgageLending, m.FirstChargeLending),
			lineItem(LabelEquityInvestment, m.CapitalLeftIn),
			lineItem(LabelCapitalGain, gain),
		}
	})
	return items
}

// absent reports a value that was never filled in. Zero is a value.
func absent(value interface{}) bool {
	if value == nil {
		return true
	}
	text, ok := value.(string)
	return ok && strings.TrimSpace(text) == ""
}

func valueRow(metric string, value float64) ReturnRow {
	rounded := mathutil.RoundWhole(value)
	return ReturnRow{Metric: metric, Value: rounded, Display: format.Whole(rounded)}
}

func percentageRow(metric string, percentage float64) ReturnRow {
	return ReturnRow{Metric: metric, Display: "0", Percentage: percentage}
}

// Returns computes the return metrics over the projection horizon. It
// requires the refinance and rental stages to have run and an asking price.
func (c *Calculator) Returns(in Input, m *Metrics) []ReturnRow {
	return c.returns(in, m, c.advisor)
}

func (c *Calculator) returns(in Input, m *Metrics, advisor Advisor) []ReturnRow {
	m.Completed = m.Completed.With(StageReturns)
	var rows []ReturnRow
	c.guard(StageReturns, func() { rows = nil }, func() {
		if !m.Completed.Has(StageRefinance) || !m.Completed.Has(StageRental) || absent(in.AskingPrice) {
			c.advise(advisor, StageReturns, "complete all calculations first")
			return
		}

		retained := m.CapitalLeftIn
		annual := m.NetAnnualCashFlow
		_, gain := capitalGain(in, *m)

		lifetime := annual * constants.ProjectionYears
		total := lifetime + gain
		annualised := mathutil.Round(mathutil.CalculatePercentage(annual, retained))

		rows = []ReturnRow{
			valueRow(LabelRetainedCapital, retained),
			valueRow(LabelNetCashFlow, annual),
			valueRow(LabelLifetimeCashFlow, lifetime),
			valueRow(LabelCapitalGain, gain),
			valueRow(LabelTotalReturn, total),
			percentageRow(c.profile.YieldLabel, annualised),
		}
		if c.profile.LifetimeROI {
			lifetimeROI := mathutil.Round(mathutil.CalculatePercentage(total, retained))
			rows = append(rows, percentageRow(LabelLifetimeReturn, lifetimeROI))
		}
	})
	return rows
}
