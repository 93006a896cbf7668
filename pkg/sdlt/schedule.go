// Package sdlt computes stamp duty land tax from tiered bracket schedules.
package sdlt

import (
	"github.com/shopspring/decimal"
)

// Band is one bracket of a schedule. A price inside the band pays
// Base + (price - Floor) * Rate. Bands charging a rate on the full price use
// a zero Floor. Ceiling is inclusive; the last band of a table is unbounded.
type Band struct {
	Ceiling   decimal.Decimal
	Unbounded bool
	Floor     decimal.Decimal
	Rate      decimal.Decimal
	Base      decimal.Decimal
}

// Table is an ordered list of bands covering every non-negative price.
type Table []Band

// Schedule pairs the residential and non-residential tables of one variant.
type Schedule struct {
	Name           string
	Residential    Table
	NonResidential Table
	// RoundResult rounds the duty to two decimals when set.
	RoundResult bool
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func band(ceiling, floor, rate, base string) Band {
	return Band{Ceiling: d(ceiling), Floor: d(floor), Rate: d(rate), Base: d(base)}
}

func topBand(floor, rate, base string) Band {
	return Band{Unbounded: true, Floor: d(floor), Rate: d(rate), Base: d(base)}
}

var nonResidentialTable = Table{
	band("150000", "0", "0", "0"),
	band("250000", "0", "0.02", "0"),
	topBand("250000", "0.05", "2000"),
}

// DomesticSchedule returns the schedule for domestic investors. Its result
// is left exact.
func DomesticSchedule() Schedule {
	return Schedule{
		Name: "domestic",
		Residential: Table{
			band("40000", "0", "0", "0"),
			band("125000", "0", "0.05", "0"),
			band("250000", "125000", "0.07", "6250"),
			band("925000", "250000", "0.10", "15000"),
			band("1500000", "925000", "0.15", "82500"),
			topBand("1500000", "0.17", "168750"),
		},
		NonResidential: nonResidentialTable,
	}
}

// InternationalSchedule returns the surcharged schedule for international
// investors. Its result is rounded to two decimals.
func InternationalSchedule() Schedule {
	return Schedule{
		Name: "international",
		Residential: Table{
			band("40000", "0", "0", "0"),
			band("125000", "0", "0.07", "0"),
			band("250000", "125000", "0.09", "8750"),
			band("925000", "250000", "0.12", "20000"),
			band("1500000", "925000", "0.17", "101000"),
			topBand("1500000", "0.19", "198750"),
		},
		NonResidential: nonResidentialTable,
		RoundResult:    true,
	}
}

// Duty evaluates the table for a price. Negative prices pay nothing.
func (t Table) Duty(price decimal.Decimal) decimal.Decimal {
	if price.IsNegative() {
		return decimal.Zero
	}
	for _, b := range t {
		if b.Unbounded || price.LessThanOrEqual(b.Ceiling) {
			return b.Base.Add(price.Sub(b.Floor).Mul(b.Rate))
		}
	}
	return decimal.Zero
}

// Table selects the bands used for a category. Exempt and chain-break
// purchases have no table.
func (s Schedule) Table(category Category) (Table, bool) {
	switch {
	case category == Residential:
		return s.Residential, true
	case category.IsCommercial():
		return s.NonResidential, true
	default:
		return nil, false
	}
}

// Calculate returns the duty owed on price for the given category.
func (s Schedule) Calculate(price float64, category Category) float64 {
	table, ok := s.Table(category)
	if !ok || price <= 0 {
		return 0
	}
	duty := table.Duty(decimal.NewFromFloat(price))
	if s.RoundResult {
		duty = duty.Round(2)
	}
	return duty.InexactFloat64()
}
