package deal

import (
	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/mathutil"
	"github.com/iwvelando/deal-calculator/pkg/normalize"
)

// WeeklyRatePerRoom converts a monthly rent into a weekly rate per room.
// Zero rooms yields 0.
func WeeklyRatePerRoom(monthlyRent, rooms float64) float64 {
	return mathutil.SafeDivide(monthlyRent*constants.MonthsPerYear/constants.WeeksPerYear, rooms)
}

// MonthlyRentFromWeekly is the inverse of WeeklyRatePerRoom: the monthly
// rent that yields a weekly rate per room over the given rooms.
func MonthlyRentFromWeekly(weeklyRate, rooms float64) float64 {
	return weeklyRate * rooms * constants.WeeksPerYear / constants.MonthsPerYear
}

// Rental derives rent, mortgage cost and net cash flow. Operating and
// management costs are carried at zero. Without a room count, or on any
// fault, every output is zero.
func (c *Calculator) Rental(in Input, m *Metrics) {
	c.rental(in, m, c.advisor)
}

func (c *Calculator) rental(in Input, m *Metrics, advisor Advisor) {
	m.Completed = m.Completed.With(StageRental)
	reset := func() {
		m.AverageWeeklyRate = 0
		m.GrossAnnualRent = 0
		m.AnnualMortgage = 0
		m.AnnualOperatingCost = 0
		m.AnnualManagementCost = 0
		m.NetAnnualCashFlow = 0
	}
	c.guard(StageRental, reset, func() {
		reset()
		rooms := normalize.Amount(in.Rooms)
		if rooms == 0 {
			c.advise(advisor, StageRental, "enter a room count to calculate rental income")
			return
		}
		weekly := WeeklyRatePerRoom(c.profile.Rent.MonthlyRent(in), rooms)

		m.AverageWeeklyRate = mathutil.Round(weekly)
		m.GrossAnnualRent = rooms * weekly * constants.WeeksPerYear
		m.AnnualMortgage = normalize.Amount(m.FirstChargeLending) * c.profile.MortgageRate
		m.AnnualOperatingCost = 0
		m.AnnualManagementCost = 0
		if c.profile.RoundCashFlow {
			m.AnnualMortgage = mathutil.RoundWhole(m.AnnualMortgage)
		}

		net := m.GrossAnnualRent - m.AnnualMortgage - m.AnnualOperatingCost - m.AnnualManagementCost
		if c.profile.RoundCashFlow {
			net = mathutil.RoundWhole(net)
		}
		m.NetAnnualCashFlow = net
	})
}
