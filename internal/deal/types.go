// Package deal computes the financial profile of a property investment deal:
// stamp duty, acquisition cost, refinance structure, rental cash flow, the
// capital growth projection, the ten year capital gain and return metrics.
package deal

import (
	"fmt"
	"strings"
)

// Variant selects the investor rule set a deal is computed under.
type Variant string

// Supported variants.
const (
	Domestic      Variant = "domestic"
	International Variant = "international"
)

// Variants lists every supported variant.
func Variants() []Variant {
	return []Variant{Domestic, International}
}

// ParseVariant maps a name onto a Variant. "uk" and "int" are accepted as
// short forms.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "domestic", "uk":
		return Domestic, nil
	case "international", "int":
		return International, nil
	default:
		return "", fmt.Errorf("unknown variant %q", name)
	}
}

// Stage identifies one step of the calculation chain.
type Stage string

// StageInput tags advisories about the input record as a whole.
const StageInput Stage = "input"

// Calculation stages in chain order.
const (
	StageStampDuty         Stage = "stampDuty"
	StageLendingFee        Stage = "lendingFee"
	StageProjectManagement Stage = "projectManagement"
	StageCapitalIn         Stage = "capitalIn"
	StageRefinance         Stage = "refinance"
	StageRental            Stage = "rental"
	StageGrowth            Stage = "growth"
	StageCapitalGain       Stage = "capitalGain"
	StageReturns           Stage = "returns"
)

// Stages lists every stage in the order a full recompute runs them.
func Stages() []Stage {
	return []Stage{
		StageStampDuty, StageLendingFee, StageProjectManagement, StageCapitalIn,
		StageRefinance, StageRental, StageGrowth, StageCapitalGain, StageReturns,
	}
}

// ParseStage maps a stage name onto a Stage.
func ParseStage(name string) (Stage, error) {
	trimmed := strings.TrimSpace(name)
	for _, stage := range Stages() {
		if strings.EqualFold(string(stage), trimmed) {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", name)
}

// Metrics holds every derived scalar of a deal. Fields only depend on the
// input and on fields of earlier stages.
type Metrics struct {
	StampDuty             float64  `json:"stampDuty" yaml:"stampDuty"`
	LendingFee            float64  `json:"lendingFee" yaml:"lendingFee"`
	ProjectManagement     float64  `json:"projectManagement" yaml:"projectManagement"`
	CapitalIn             float64  `json:"capitalIn" yaml:"capitalIn"`
	GrossDevelopmentValue float64  `json:"grossDevelopmentValue" yaml:"grossDevelopmentValue"`
	Uplift                float64  `json:"uplift" yaml:"uplift"`
	FirstChargeLending    float64  `json:"firstChargeLending" yaml:"firstChargeLending"`
	FirstChargeLTV        float64  `json:"firstChargeLtv" yaml:"firstChargeLtv"`
	CapitalLeftIn         float64  `json:"capitalLeftIn" yaml:"capitalLeftIn"`
	CapitalReleased       float64  `json:"capitalReleased" yaml:"capitalReleased"`
	AverageWeeklyRate     float64  `json:"averageWeeklyRate" yaml:"averageWeeklyRate"`
	GrossAnnualRent       float64  `json:"grossAnnualRent" yaml:"grossAnnualRent"`
	AnnualMortgage        float64  `json:"annualMortgage" yaml:"annualMortgage"`
	AnnualOperatingCost   float64  `json:"annualOperatingCost" yaml:"annualOperatingCost"`
	AnnualManagementCost  float64  `json:"annualManagementCost" yaml:"annualManagementCost"`
	NetAnnualCashFlow     float64  `json:"netAnnualCashFlow" yaml:"netAnnualCashFlow"`
	Completed             StageSet `json:"completed" yaml:"completed"`
}

// GrowthRow is one year of the capital growth projection. Value is the
// balance at the start of the year.
type GrowthRow struct {
	Year            int      `json:"year" yaml:"year"`
	Value           float64  `json:"value" yaml:"value"`
	DisplayValue    string   `json:"displayValue" yaml:"displayValue"`
	GrowthRate      float64  `json:"growthRate" yaml:"growthRate"`
	Increase        *float64 `json:"increase" yaml:"increase"`
	DisplayIncrease string   `json:"displayIncrease,omitempty" yaml:"displayIncrease,omitempty"`
}

// LineItem is one row of the capital gain breakdown.
type LineItem struct {
	Label   string  `json:"label" yaml:"label"`
	Amount  float64 `json:"amount" yaml:"amount"`
	Display string  `json:"display" yaml:"display"`
}

// ReturnRow is one return metric. Value rows leave Percentage at 0 and
// percentage rows leave Value at 0.
type ReturnRow struct {
	Metric     string  `json:"metric" yaml:"metric"`
	Value      float64 `json:"value" yaml:"value"`
	Display    string  `json:"display" yaml:"display"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// Advisory is a user facing notice raised when a stage cannot run.
type Advisory struct {
	Variant Variant `json:"variant" yaml:"variant"`
	Stage   Stage   `json:"stage" yaml:"stage"`
	Message string  `json:"message" yaml:"message"`
}

func (a Advisory) String() string {
	return fmt.Sprintf("[%s/%s] %s", a.Variant, a.Stage, a.Message)
}

// Result is the complete output of one compute cycle. Every cycle builds a
// new Result; collections are never appended to across cycles.
type Result struct {
	Variant     Variant     `json:"variant" yaml:"variant"`
	Metrics     Metrics     `json:"metrics" yaml:"metrics"`
	Growth      []GrowthRow `json:"growth" yaml:"growth"`
	CapitalGain []LineItem  `json:"capitalGain" yaml:"capitalGain"`
	Returns     []ReturnRow `json:"returns" yaml:"returns"`
	Advisories  []Advisory  `json:"advisories,omitempty" yaml:"advisories,omitempty"`
}

// Pair holds the results of both variants from one RecomputeAll call.
type Pair struct {
	Domestic      Result `json:"domestic" yaml:"domestic"`
	International Result `json:"international" yaml:"international"`
}
