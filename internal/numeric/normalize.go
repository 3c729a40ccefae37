// Package numeric turns heterogeneous report values into numbers.
// It underlies every bucket sum and every numeric range filter.
package numeric

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var stripper = strings.NewReplacer(",", "", "%", "")

// Normalize converts v into a finite float64. Thousands separators and percent
// signs are stripped; absent, unparseable, NaN and infinite values become 0.
func Normalize(v interface{}) float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case bool:
		if t {
			f = 1
		}
	case decimal.Decimal:
		f = t.InexactFloat64()
	case *decimal.Decimal:
		if t == nil {
			return 0
		}
		f = t.InexactFloat64()
	case json.Number:
		return parse(string(t))
	case []byte:
		return parse(string(t))
	case string:
		return parse(t)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Decimal is Normalize for money sums. Values beyond float64 range become 0,
// as they do in Normalize.
func Decimal(v interface{}) decimal.Decimal {
	switch t := v.(type) {
	case decimal.Decimal:
		if math.IsInf(t.InexactFloat64(), 0) {
			return decimal.Zero
		}
		return t
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(stripper.Replace(t))); err == nil {
			if math.IsInf(d.InexactFloat64(), 0) {
				return decimal.Zero
			}
			return d
		}
	case []byte:
		return Decimal(string(t))
	}
	return decimal.NewFromFloat(Normalize(v))
}

func parse(s string) float64 {
	s = strings.TrimSpace(stripper.Replace(s))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
