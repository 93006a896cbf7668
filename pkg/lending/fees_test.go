package lending

import (
	"math"
	"testing"
)

func TestFeeScheduleTotal(t *testing.T) {
	schedule := DefaultFeeSchedule()
	tests := []struct {
		name     string
		price    float64
		expected float64
	}{
		{"No price", 0, 0},
		{"Negative price", -100, 0},
		{"Typical purchase", 200000, 7450},
		{"Rounded to pennies", 100000.33, 5200.01},
		{"Small purchase", 1, 2950.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := schedule.Total(tt.price)
			if math.Abs(got-tt.expected) > 0.000001 {
				t.Errorf("Total(%v) = %v, expected %v", tt.price, got, tt.expected)
			}
		})
	}
}

func TestFeeScheduleBreakdown(t *testing.T) {
	breakdown := DefaultFeeSchedule().Calculate(400000)

	if breakdown.LoanAmount != 300000 {
		t.Errorf("expected loan of 300000, got %v", breakdown.LoanAmount)
	}
	if breakdown.Fixed != 2950 {
		t.Errorf("expected fixed fees of 2950, got %v", breakdown.Fixed)
	}
	if breakdown.Arrangement != 6000 {
		t.Errorf("expected arrangement fee of 6000, got %v", breakdown.Arrangement)
	}
	if breakdown.Brokerage != 3000 {
		t.Errorf("expected brokerage fee of 3000, got %v", breakdown.Brokerage)
	}
	if breakdown.Total != 11950 {
		t.Errorf("expected total of 11950, got %v", breakdown.Total)
	}
}

func TestFixedTotal(t *testing.T) {
	if got := DefaultFeeSchedule().FixedTotal().InexactFloat64(); got != 2950 {
		t.Errorf("FixedTotal() = %v, expected 2950", got)
	}
}
