package deal

import (
	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/format"
	"github.com/iwvelando/deal-calculator/pkg/mathutil"
	"github.com/iwvelando/deal-calculator/pkg/normalize"
)

// GrowthProjection projects the asking price forward at a fixed 3.5% a year.
// It returns one row per year from 0 to 10; each row shows the value at the
// start of that year and the increase earned during it. The final row has no
// increase and a zero growth rate. Without a positive asking price no rows
// are produced.
func (c *Calculator) GrowthProjection(in Input, m *Metrics) []GrowthRow {
	return c.growthProjection(in, m, c.advisor)
}

func (c *Calculator) growthProjection(in Input, m *Metrics, advisor Advisor) []GrowthRow {
	m.Completed = m.Completed.With(StageGrowth)
	var rows []GrowthRow
	c.guard(StageGrowth, func() { rows = nil }, func() {
		if !normalize.Present(in.AskingPrice) {
			c.advise(advisor, StageGrowth, "enter an asking price to see capital growth projections")
			return
		}
		current := normalize.Amount(in.AskingPrice)
		if current <= 0 {
			c.advise(advisor, StageGrowth, "enter a valid positive asking price")
			return
		}

		rows = make([]GrowthRow, 0, constants.ProjectionYears+1)
		for year := 0; year <= constants.ProjectionYears; year++ {
			increase := current * constants.AnnualGrowthRate
			value := mathutil.RoundWhole(current)
			row := GrowthRow{
				Year:         year,
				Value:        value,
				DisplayValue: format.Whole(value),
			}
			if year < constants.ProjectionYears {
				rounded := mathutil.RoundWhole(increase)
				row.GrowthRate = constants.AnnualGrowthRate * constants.PercentageMultiplier
				row.Increase = &rounded
				row.DisplayIncrease = format.Whole(rounded)
			}
			rows = append(rows, row)
			current += increase
		}
	})
	return rows
}
