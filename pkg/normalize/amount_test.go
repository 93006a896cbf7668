package normalize

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmount(t *testing.T) {
	price := 250000.0
	text := "£99,950"
	var nilFloat *float64

	tests := []struct {
		name     string
		input    interface{}
		expected float64
	}{
		{"Nil", nil, 0},
		{"Empty string", "", 0},
		{"Pound formatted", "£1,234.56", 1234.56},
		{"Whitespace and separators", " 1 250 000 ", 1250000},
		{"Letters only", "abc", 0},
		{"Sign is stripped", "-50", 50},
		{"Two decimal points", "1.2.3", 0},
		{"Lone decimal point", ".", 0},
		{"Float", 1234.5, 1234.5},
		{"Negative float kept", -20.0, -20},
		{"Float pointer", &price, 250000},
		{"Nil float pointer", nilFloat, 0},
		{"String pointer", &text, 99950},
		{"Integer", 3, 3},
		{"Int64", int64(42), 42},
		{"Float32", float32(0.5), 0.5},
		{"JSON number", json.Number("870"), 870},
		{"Decimal", decimal.RequireFromString("6250.07"), 6250.07},
		{"NaN", math.NaN(), 0},
		{"Infinity", math.Inf(1), 0},
		{"Unsupported type", struct{}{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Amount(tt.input)
			if math.Abs(result-tt.expected) > 0.000001 {
				t.Errorf("Amount(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPresent(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected bool
	}{
		{"Nil", nil, false},
		{"Blank string", "   ", false},
		{"Zero", 0.0, false},
		{"Zero text", "£0", false},
		{"Garbage text", "n/a", false},
		{"Amount text", "£150,000", true},
		{"Number", 40000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Present(tt.input); got != tt.expected {
				t.Errorf("Present(%v) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSum(t *testing.T) {
	total := Sum("£100", nil, 250.5, "", "bad", 3)
	if math.Abs(total-353.5) > 0.000001 {
		t.Errorf("Sum() = %v, expected 353.5", total)
	}
	if Sum() != 0 {
		t.Errorf("Sum() of nothing should be 0")
	}
}
