// Package normalize converts loosely typed deal inputs into clean amounts.
package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var nonAmountChars = regexp.MustCompile(`[^\d.]`)

// Amount converts a raw input value into a float64. Absent values and empty
// strings yield 0. Text has every character other than digits and the
// decimal point stripped before parsing, so currency symbols, separators and
// signs are dropped; text that still fails to parse yields 0. Numeric values
// are converted directly. Amount never fails.
func Amount(value interface{}) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case string:
		return parseText(v)
	case *string:
		if v == nil {
			return 0
		}
		return parseText(*v)
	case []byte:
		return parseText(string(v))
	case json.Number:
		return parseText(string(v))
	case float64:
		return finite(v)
	case *float64:
		if v == nil {
			return 0
		}
		return finite(*v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case decimal.Decimal:
		return v.InexactFloat64()
	default:
		return 0
	}
}

// Present reports whether a raw input value carries a non-zero amount. Nil,
// blank text, unparsable text and zero are all treated as absent.
func Present(value interface{}) bool {
	if value == nil {
		return false
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return false
	}
	return Amount(value) != 0
}

// Sum normalizes and adds every value.
func Sum(values ...interface{}) float64 {
	total := 0.0
	for _, value := range values {
		total += Amount(value)
	}
	return total
}

func parseText(text string) float64 {
	cleaned := nonAmountChars.ReplaceAllString(text, "")
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return finite(parsed)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
