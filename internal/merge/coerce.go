package merge

import (
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/i79-incident-etl/internal/domain"
)

// Override documents are edited by hand and decoded into loosely typed maps,
// so numbers arrive as float64 and anything may arrive as a string.

func coerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return domain.TextToBool(t)
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return false
	}
}

// coerceCount reads a non-negative integer. Fractions are truncated.
func coerceCount(v any) (int, bool) {
	var n int
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		n = int(t)
	case int:
		n = t
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		n = parsed
	case bool:
		if t {
			n = 1
		}
	default:
		return 0, false
	}
	if n < 0 {
		return 0, false
	}
	return n, true
}

// coerceOptionalCount is coerceCount where an explicit null clears the value.
func coerceOptionalCount(v any) (*int, bool) {
	if v == nil {
		return nil, true
	}
	n, ok := coerceCount(v)
	if !ok {
		return nil, false
	}
	return &n, true
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}
