package deal

import (
	"math"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sampleInput() Input {
	return Input{
		PurchasePrice:     200000,
		Renovation:        30000,
		ArchitectPlanning: 2000,
		BuildingControl:   1000,
		Furniture:         5000,
		Survey:            500,
		Legal:             1500,
		Insurance:         800,
		Sourcing:          3000,
		LeaseSetup:        1000,
		Category:          "Residential",
		AskingPrice:       300000,
		Rooms:             5,
		MonthlyRent:       3000,
	}
}

func newTestCalculator(t *testing.T, variant Variant) (*Calculator, *[]Advisory) {
	t.Helper()
	var advisories []Advisory
	calc, err := NewVariantCalculator(variant, zap.NewNop(), AdvisorFunc(func(a Advisory) {
		advisories = append(advisories, a)
	}))
	if err != nil {
		t.Fatalf("failed to create calculator: %v", err)
	}
	return calc, &advisories
}

func assertClose(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 0.01 {
		t.Errorf("%s: expected %.4f, got %.4f", name, want, got)
	}
}

func TestDomesticRecompute(t *testing.T) {
	calc, advisories := newTestCalculator(t, Domestic)
	result := calc.Recompute(sampleInput())
	m := result.Metrics

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"stamp duty", m.StampDuty, 11500},
		{"lending fee", m.LendingFee, 0},
		{"project management", m.ProjectManagement, 0},
		{"capital in", m.CapitalIn, 255300},
		{"gross development value", m.GrossDevelopmentValue, 300000},
		{"uplift", m.Uplift, 100000},
		{"first charge lending", m.FirstChargeLending, 225000},
		{"first charge ltv", m.FirstChargeLTV, 75},
		{"capital left in", m.CapitalLeftIn, 30300},
		{"capital released", m.CapitalReleased, 225000},
		{"average weekly rate", m.AverageWeeklyRate, 138.46},
		{"gross annual rent", m.GrossAnnualRent, 36000},
		{"annual mortgage", m.AnnualMortgage, 13500},
		{"annual operating cost", m.AnnualOperatingCost, 0},
		{"annual management cost", m.AnnualManagementCost, 0},
		{"net annual cash flow", m.NetAnnualCashFlow, 22500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertClose(t, tt.name, tt.got, tt.expected)
		})
	}

	if len(*advisories) != 0 {
		t.Errorf("expected no advisories, got %v", *advisories)
	}
	for _, stage := range Stages() {
		if !m.Completed.Has(stage) {
			t.Errorf("expected stage %s to be completed", stage)
		}
	}
}

func TestInternationalRecompute(t *testing.T) {
	calc, _ := newTestCalculator(t, International)
	m := calc.Recompute(sampleInput()).Metrics

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"stamp duty", m.StampDuty, 15500},
		{"lending fee", m.LendingFee, 7450},
		{"project management", m.ProjectManagement, 3000},
		{"capital in", m.CapitalIn, 270750},
		{"first charge lending", m.FirstChargeLending, 225000},
		{"capital left in", m.CapitalLeftIn, 45750},
		{"capital released", m.CapitalReleased, 225000},
		{"average weekly rate", m.AverageWeeklyRate, 40.15},
		{"gross annual rent", m.GrossAnnualRent, 10440},
		{"annual mortgage", m.AnnualMortgage, 16875},
		{"net annual cash flow", m.NetAnnualCashFlow, -6435},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertClose(t, tt.name, tt.got, tt.expected)
		})
	}
}

func TestInternationalRentIgnoresInput(t *testing.T) {
	calc, _ := newTestCalculator(t, International)
	in := sampleInput()
	base := calc.Recompute(in).Metrics.GrossAnnualRent
	in.MonthlyRent = 99999
	if got := calc.Recompute(in).Metrics.GrossAnnualRent; got != base {
		t.Errorf("expected rent to stay %.2f, got %.2f", base, got)
	}
}

func TestInternationalRoundsCashFlow(t *testing.T) {
	calc, _ := newTestCalculator(t, International)
	in := sampleInput()
	in.AskingPrice = 300001
	m := calc.Recompute(in).Metrics
	if m.AnnualMortgage != math.Round(m.AnnualMortgage) {
		t.Errorf("expected whole mortgage, got %.4f", m.AnnualMortgage)
	}
	if m.NetAnnualCashFlow != math.Round(m.NetAnnualCashFlow) {
		t.Errorf("expected whole net cash flow, got %.4f", m.NetAnnualCashFlow)
	}

	domestic, _ := newTestCalculator(t, Domestic)
	dm := domestic.Recompute(in).Metrics
	assertClose(t, "domestic mortgage", dm.AnnualMortgage, 225000.75*0.06)
	if dm.AnnualMortgage == math.Round(dm.AnnualMortgage) {
		t.Errorf("expected unrounded domestic mortgage, got %.4f", dm.AnnualMortgage)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	for _, variant := range Variants() {
		t.Run(string(variant), func(t *testing.T) {
			calc, _ := newTestCalculator(t, variant)
			in := sampleInput()
			first := calc.Recompute(in)
			second := calc.Recompute(in)
			if !reflect.DeepEqual(first, second) {
				t.Errorf("expected identical results\nfirst:  %+v\nsecond: %+v", first, second)
			}
			if len(second.Growth) != 11 || len(second.CapitalGain) != 4 {
				t.Errorf("unexpected collection sizes: growth=%d gain=%d", len(second.Growth), len(second.CapitalGain))
			}
		})
	}
}

func TestRecomputeAcceptsFormattedText(t *testing.T) {
	calc, _ := newTestCalculator(t, Domestic)
	numeric := calc.Recompute(sampleInput())

	in := sampleInput()
	in.PurchasePrice = "£200,000"
	in.AskingPrice = "£300,000.00"
	in.MonthlyRent = "3,000"
	in.Rooms = "5"
	text := calc.Recompute(in)

	if !reflect.DeepEqual(numeric.Metrics, text.Metrics) {
		t.Errorf("expected formatted text to match numeric input\nnumeric: %+v\ntext:    %+v", numeric.Metrics, text.Metrics)
	}
}

func TestRentalWithoutRooms(t *testing.T) {
	for _, variant := range Variants() {
		for _, rooms := range []interface{}{nil, 0, "", "abc"} {
			t.Run(string(variant), func(t *testing.T) {
				calc, advisories := newTestCalculator(t, variant)
				in := sampleInput()
				in.Rooms = rooms
				m := calc.Recompute(in).Metrics

				if m.AverageWeeklyRate != 0 || m.GrossAnnualRent != 0 || m.AnnualMortgage != 0 || m.NetAnnualCashFlow != 0 {
					t.Errorf("expected zero rental outputs, got %+v", m)
				}
				if !hasAdvisory(*advisories, StageRental) {
					t.Errorf("expected a rental advisory, got %v", *advisories)
				}
			})
		}
	}
}

func TestWeeklyRatePerRoom(t *testing.T) {
	tests := []struct {
		name     string
		monthly  float64
		rooms    float64
		expected float64
	}{
		{"five rooms", 3000, 5, 138.4615},
		{"one room", 520, 1, 120},
		{"zero rooms", 3000, 0, 0},
		{"no rent", 0, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeeklyRatePerRoom(tt.monthly, tt.rooms); math.Abs(got-tt.expected) > 0.0001 {
				t.Errorf("expected %.4f, got %.4f", tt.expected, got)
			}
		})
	}

	if got := MonthlyRentFromWeekly(WeeklyRatePerRoom(3000, 5), 5); math.Abs(got-3000) > 0.0001 {
		t.Errorf("expected round trip to 3000, got %.4f", got)
	}
}

func TestReturnsWithZeroCapitalLeftIn(t *testing.T) {
	in := Input{
		PurchasePrice: 300000,
		Category:      "Exempt",
		AskingPrice:   400000,
		Rooms:         5,
		MonthlyRent:   3000,
	}
	for _, variant := range []Variant{Domestic} {
		calc, _ := newTestCalculator(t, variant)
		result := calc.Recompute(in)
		if result.Metrics.CapitalLeftIn != 0 {
			t.Fatalf("expected zero capital left in, got %.2f", result.Metrics.CapitalLeftIn)
		}
		for _, row := range result.Returns {
			if math.IsInf(row.Percentage, 0) || math.IsNaN(row.Percentage) {
				t.Errorf("%s: expected a finite percentage, got %v", row.Metric, row.Percentage)
			}
		}
		if row := findRow(result.Returns, "Annualised ROI"); row == nil || row.Percentage != 0 {
			t.Errorf("expected annualised ROI 0, got %+v", row)
		}
		if row := findRow(result.Returns, LabelLifetimeReturn); row == nil || row.Percentage != 0 {
			t.Errorf("expected lifetime return 0, got %+v", row)
		}
	}
}

type panicRent struct{}

func (panicRent) MonthlyRent(Input) float64 {
	panic("rent feed unavailable")
}

func TestStageFaultResetsOutputs(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	profile := DomesticProfile()
	profile.Rent = panicRent{}
	calc := NewCalculator(profile, zap.New(core), AdvisorFunc(func(Advisory) {}))

	result := calc.Recompute(sampleInput())
	m := result.Metrics
	if m.AverageWeeklyRate != 0 || m.GrossAnnualRent != 0 || m.AnnualMortgage != 0 || m.NetAnnualCashFlow != 0 {
		t.Errorf("expected rental outputs reset to zero, got %+v", m)
	}
	if m.CapitalLeftIn != 30300 {
		t.Errorf("expected earlier stages untouched, capital left in %.2f", m.CapitalLeftIn)
	}
	if len(result.Growth) != 11 {
		t.Errorf("expected later stages to still run, got %d growth rows", len(result.Growth))
	}
	if logs.FilterMessageSnippet("error in rental calculation").Len() != 1 {
		t.Errorf("expected one logged rental fault, got %v", logs.All())
	}
}

func TestCapitalInDisagreementIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	calc := NewCalculator(DomesticProfile(), zap.New(core), AdvisorFunc(func(Advisory) {}))

	in := sampleInput()
	var m Metrics
	calc.StampDuty(in, &m)
	calc.CapitalIn(in, &m)
	in.Renovation = 40000
	calc.Refinance(in, &m)

	if logs.FilterMessage("total investment disagrees with capital in").Len() != 1 {
		t.Errorf("expected a logged disagreement, got %v", logs.All())
	}
	assertClose(t, "capital left in", m.CapitalLeftIn, 40300)
}

func TestMissingRequiredAdvisory(t *testing.T) {
	calc, advisories := newTestCalculator(t, Domestic)
	in := sampleInput()
	in.MonthlyRent = nil
	calc.Recompute(in)
	if !hasAdvisory(*advisories, StageInput) {
		t.Errorf("expected an input advisory, got %v", *advisories)
	}

	intl, intlAdvisories := newTestCalculator(t, International)
	intl.Recompute(in)
	if hasAdvisory(*intlAdvisories, StageInput) {
		t.Errorf("international variant does not need a rent, got %v", *intlAdvisories)
	}
}

func TestResultCarriesAdvisories(t *testing.T) {
	calc, forwarded := newTestCalculator(t, Domestic)
	result := calc.Recompute(Input{})
	if len(result.Advisories) == 0 {
		t.Fatal("expected advisories on an empty input")
	}
	if !reflect.DeepEqual(result.Advisories, *forwarded) {
		t.Errorf("expected the advisor to receive the same advisories")
	}
	for _, stage := range []Stage{StageStampDuty, StageGrowth, StageCapitalGain, StageReturns} {
		if !hasAdvisory(result.Advisories, stage) {
			t.Errorf("expected an advisory for %s", stage)
		}
	}
}

func TestStampDutyNeedsPriceAndCategory(t *testing.T) {
	tests := []struct {
		name     string
		price    interface{}
		category string
	}{
		{"missing price", nil, "Residential"},
		{"missing category", 200000, ""},
		{"unknown category", 200000, "Castle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, advisories := newTestCalculator(t, Domestic)
			m := Metrics{StampDuty: 123}
			calc.StampDuty(Input{PurchasePrice: tt.price, Category: tt.category}, &m)
			if m.StampDuty != 0 {
				t.Errorf("expected 0, got %.2f", m.StampDuty)
			}
			if !hasAdvisory(*advisories, StageStampDuty) {
				t.Error("expected a stamp duty advisory")
			}
		})
	}
}

func TestEngineRecomputeAll(t *testing.T) {
	engine := NewEngine(zap.NewNop(), AdvisorFunc(func(Advisory) {}))
	pair := engine.RecomputeAll(sampleInput(), sampleInput())

	if pair.Domestic.Variant != Domestic || pair.International.Variant != International {
		t.Fatalf("unexpected variants %s/%s", pair.Domestic.Variant, pair.International.Variant)
	}
	assertClose(t, "domestic stamp duty", pair.Domestic.Metrics.StampDuty, 11500)
	assertClose(t, "international stamp duty", pair.International.Metrics.StampDuty, 15500)

	if _, err := engine.Calculator(Variant("mars")); err == nil {
		t.Error("expected an error for an unknown variant")
	}
	result, err := engine.Recompute(International, sampleInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(result, pair.International) {
		t.Error("expected Recompute to match RecomputeAll")
	}
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		input    string
		expected Variant
		wantErr  bool
	}{
		{"domestic", Domestic, false},
		{"UK", Domestic, false},
		{" International ", International, false},
		{"int", International, false},
		{"offshore", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVariant(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func hasAdvisory(advisories []Advisory, stage Stage) bool {
	for _, a := range advisories {
		if a.Stage == stage {
			return true
		}
	}
	return false
}

func findRow(rows []ReturnRow, metric string) *ReturnRow {
	for i := range rows {
		if rows[i].Metric == metric {
			return &rows[i]
		}
	}
	return nil
}
