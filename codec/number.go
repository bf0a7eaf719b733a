package codec

import (
	"encoding/json"
	"math"
	"strconv"
)

// toFloat64 accepts every numeric representation a decoded tree can hold:
// json.Number from the JSON reader, fixed-width integers from MessagePack
// and plain float64 from hand-built trees.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt64(f)
	case float64:
		return floatToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint, uint8, uint16, uint32, uint64:
		u, _ := toUint64(n)
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case json.Number:
		if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
			return u, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToUint64(f)
	case float64:
		return floatToUint64(n)
	case float32:
		return floatToUint64(float64(n))
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case int, int8, int16, int32, int64:
		i, _ := toInt64(n)
		if i < 0 {
			return 0, false
		}
		return uint64(i), true
	}
	return 0, false
}

func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func floatToUint64(f float64) (uint64, bool) {
	if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
		return 0, false
	}
	return uint64(f), true
}

// normalizeNumber settles a numeric leaf on int64 when it is integral and
// fits, and on float64 otherwise, whatever the on-disk format produced.
func normalizeNumber(v any) (any, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return i, true
		}
		f, ok := toFloat64(n)
		return f, ok
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		if i, ok := toInt64(n); ok {
			return i, true
		}
		f, ok := toFloat64(n)
		return f, ok
	}
	return v, false
}

// floatLiterals copies a tree, rewriting integral floats as JSON numbers
// with a fractional part so they read back as float64 rather than int64.
func floatLiterals(node any) any {
	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[k] = floatLiterals(v)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = floatLiterals(v)
		}
		return out
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1e21 {
			return json.Number(strconv.FormatFloat(n, 'f', 1, 64))
		}
	}
	return node
}
