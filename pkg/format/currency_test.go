package format

import "testing"

func TestWhole(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		expected string
	}{
		{"Zero", 0, "0"},
		{"Below one thousand", 999.4, "999"},
		{"Thousands separator", 141059.876, "141,060"},
		{"Millions", 1234567.5, "1,234,568"},
		{"Negative", -22500.2, "-22,500"},
		{"Negative rounds to zero", -0.4, "0"},
		{"Beyond int64", 1e20, "100,000,000,000,000,000,000"},
		{"Negative beyond int64", -1e20, "-100,000,000,000,000,000,000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Whole(tt.amount); got != tt.expected {
				t.Errorf("Whole(%v) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		expected string
	}{
		{"Positive", 1234.56, "£1,234.56"},
		{"Negative", -1234.5, "-£1,234.50"},
		{"Small", 7.1, "£7.10"},
		{"Zero", 0, "£0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Currency(tt.amount); got != tt.expected {
				t.Errorf("Currency(%v) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(12.3456); got != "12.35%" {
		t.Errorf("Percent(12.3456) = %q, expected 12.35%%", got)
	}
	if got := Percent(0); got != "0.00%" {
		t.Errorf("Percent(0) = %q, expected 0.00%%", got)
	}
}
