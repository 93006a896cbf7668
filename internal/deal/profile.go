package deal

import (
	"fmt"

	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/lending"
	"github.com/iwvelando/deal-calculator/pkg/normalize"
	"github.com/iwvelando/deal-calculator/pkg/sdlt"
)

// RentBasis yields the monthly rent a deal is modelled on.
type RentBasis interface {
	MonthlyRent(in Input) float64
}

// InputRent takes the monthly rent from the deal input.
type InputRent struct{}

// MonthlyRent implements RentBasis.
func (InputRent) MonthlyRent(in Input) float64 {
	return normalize.Amount(in.MonthlyRent)
}

// FixedRent ignores the input and always models the same monthly rent.
type FixedRent float64

// MonthlyRent implements RentBasis.
func (r FixedRent) MonthlyRent(Input) float64 {
	return float64(r)
}

// CostField is one line of the acquisition cost list.
type CostField struct {
	Name  string
	Value func(in Input, m Metrics) interface{}
}

// ReleaseRule derives the capital released on refinance.
type ReleaseRule func(totalInvestment, capitalLeftIn, lending float64) float64

// ReleaseLending releases exactly the first-charge lending.
func ReleaseLending(_, _, lending float64) float64 {
	return lending
}

// ReleaseRemainder releases whatever part of the investment is not left in.
func ReleaseRemainder(totalInvestment, capitalLeftIn, _ float64) float64 {
	return totalInvestment - capitalLeftIn
}

// Profile is the rule set of one variant. Both variants share the pipeline
// and differ only in these parameters.
type Profile struct {
	Variant               Variant
	Schedule              sdlt.Schedule
	Fees                  *lending.FeeSchedule
	ProjectManagementRate float64
	Rent                  RentBasis
	MortgageRate          float64
	RoundCashFlow         bool
	CostFields            []CostField
	CapitalReleased       ReleaseRule
	YieldLabel            string
	LifetimeROI           bool
}

func inputField(get func(in Input) interface{}) func(Input, Metrics) interface{} {
	return func(in Input, _ Metrics) interface{} { return get(in) }
}

func metricField(get func(m Metrics) float64) func(Input, Metrics) interface{} {
	return func(_ Input, m Metrics) interface{} { return get(m) }
}

var domesticCostFields = []CostField{
	{FieldPurchasePrice, inputField(func(in Input) interface{} { return in.PurchasePrice })},
	{FieldRenovation, inputField(func(in Input) interface{} { return in.Renovation })},
	{FieldArchitectPlanning, inputField(func(in Input) interface{} { return in.ArchitectPlanning })},
	{FieldBuildingControl, inputField(func(in Input) interface{} { return in.BuildingControl })},
	{FieldFurniture, inputField(func(in Input) interface{} { return in.Furniture })},
	{FieldSurvey, inputField(func(in Input) interface{} { return in.Survey })},
	{FieldLegal, inputField(func(in Input) interface{} { return in.Legal })},
	{FieldInsurance, inputField(func(in Input) interface{} { return in.Insurance })},
	{FieldSourcing, inputField(func(in Input) interface{} { return in.Sourcing })},
	{string(StageStampDuty), metricField(func(m Metrics) float64 { return m.StampDuty })},
}

var internationalCostFields = append(append([]CostField{}, domesticCostFields...),
	CostField{string(StageProjectManagement), metricField(func(m Metrics) float64 { return m.ProjectManagement })},
	CostField{FieldLeaseSetup, inputField(func(in Input) interface{} { return in.LeaseSetup })},
	CostField{string(StageLendingFee), metricField(func(m Metrics) float64 { return m.LendingFee })},
)

// DomesticProfile returns the rule set for domestic investors.
func DomesticProfile() Profile {
	return Profile{
		Variant:         Domestic,
		Schedule:        sdlt.DomesticSchedule(),
		Rent:            InputRent{},
		MortgageRate:    constants.DomesticMortgageRate,
		CostFields:      domesticCostFields,
		CapitalReleased: ReleaseLending,
		YieldLabel:      "Annualised ROI",
		LifetimeROI:     true,
	}
}

// InternationalProfile returns the rule set for international investors.
func InternationalProfile() Profile {
	fees := lending.DefaultFeeSchedule()
	return Profile{
		Variant:               International,
		Schedule:              sdlt.InternationalSchedule(),
		Fees:                  &fees,
		ProjectManagementRate: constants.ProjectManagementRate,
		Rent:                  FixedRent(constants.InternationalMonthlyRent),
		MortgageRate:          constants.InternationalMortgageRate,
		RoundCashFlow:         true,
		CostFields:            internationalCostFields,
		CapitalReleased:       ReleaseRemainder,
		YieldLabel:            "Nett Yield",
	}
}

// ProfileFor returns the rule set of a variant.
func ProfileFor(variant Variant) (Profile, error) {
	switch variant {
	case Domestic:
		return DomesticProfile(), nil
	case International:
		return InternationalProfile(), nil
	default:
		return Profile{}, fmt.Errorf("unknown variant %q", variant)
	}
}
