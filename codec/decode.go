package codec

import (
	"bytes"
	"encoding/json"
	"math"
)

// Tags recognized in the "type" field of a stored record.
const (
	TagArray    = "numpy.ndarray"
	TagDateTime = "datetime.datetime"
	TagDate     = "datetime.date"
	TagFrame    = "pandas.DataFrame"
)

const (
	fieldType     = "type"
	fieldDataType = "data_type"
	fieldData     = "data"
)

// Decode reconstructs native values from a tagged tree. Maps carrying a
// known tag become *Array, time.Time, Date or *Frame; every other map is
// copied with its children decoded, so unknown tags pass through. Integral
// numeric leaves become int64 and the rest float64.
//
// Decode is idempotent: already reconstructed values are returned as is.
func Decode(node any) (any, error) {
	switch n := node.(type) {
	case map[string]any:
		if tag, ok := n[fieldType].(string); ok {
			switch tag {
			case TagArray:
				return decodeArray(n)
			case TagDateTime:
				s, ok := n[fieldData].(string)
				if !ok {
					return nil, decodeError("%s payload is %T", tag, n[fieldData])
				}
				t, err := parseDateTime(s)
				if err != nil {
					return nil, wrapDecode(err, tag)
				}
				return t, nil
			case TagDate:
				s, ok := n[fieldData].(string)
				if !ok {
					return nil, decodeError("%s payload is %T", tag, n[fieldData])
				}
				d, err := ParseDate(s)
				if err != nil {
					return nil, wrapDecode(err, tag)
				}
				return d, nil
			case TagFrame:
				return decodeFrame(n[fieldData])
			}
		}
		out := make(map[string]any, len(n))
		for k, v := range n {
			decoded, err := Decode(v)
			if err != nil {
				return nil, err
			}
			out[k] = decoded
		}
		return out, nil
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			decoded, err := Decode(v)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil
	}
	if n, ok := normalizeNumber(node); ok {
		return n, nil
	}
	return node, nil
}

// readJSON parses JSON keeping numbers as json.Number so integer arrays
// keep full int64 precision.
func readJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var node any
	if err := dec.Decode(&node); err != nil {
		return nil, wrapDecode(err, "malformed JSON entry")
	}
	if dec.More() {
		return nil, decodeError("trailing data after JSON entry")
	}
	return node, nil
}

func decodeArray(n map[string]any) (*Array, error) {
	name, ok := n[fieldDataType].(string)
	if !ok {
		return nil, decodeError("%s without %s", TagArray, fieldDataType)
	}
	dtype := DType(name)
	shape, leaves, err := flatten(n[fieldData])
	if err != nil {
		return nil, err
	}
	data, err := fillElements(dtype, leaves)
	if err != nil {
		return nil, wrapDecode(err, TagArray)
	}
	return &Array{dtype: dtype, shape: shape, data: data}, nil
}

// flatten infers the shape of a nested list from its first elements and
// collects the leaves row-major, rejecting ragged input.
func flatten(node any) ([]int, []any, error) {
	shape := []int{}
	for probe := node; ; {
		list, ok := probe.([]any)
		if !ok {
			break
		}
		shape = append(shape, len(list))
		if len(list) == 0 {
			break
		}
		probe = list[0]
	}
	var leaves []any
	var walk func(v any, dim int) error
	walk = func(v any, dim int) error {
		if dim == len(shape) {
			if _, nested := v.([]any); nested {
				return decodeError("array nesting deeper than shape %v", shape)
			}
			leaves = append(leaves, v)
			return nil
		}
		list, ok := v.([]any)
		if !ok || len(list) != shape[dim] {
			return decodeError("ragged array at dimension %d, shape %v", dim, shape)
		}
		for _, item := range list {
			if err := walk(item, dim+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(node, 0); err != nil {
		return nil, nil, err
	}
	return shape, leaves, nil
}

func fillElements(dtype DType, leaves []any) (any, error) {
	switch dtype {
	case Float64:
		return fillFloat[float64](leaves)
	case Float32:
		return fillFloat[float32](leaves)
	case Int64:
		return fillInt[int64](leaves, math.MinInt64, math.MaxInt64)
	case Int32:
		return fillInt[int32](leaves, math.MinInt32, math.MaxInt32)
	case Int16:
		return fillInt[int16](leaves, math.MinInt16, math.MaxInt16)
	case Int8:
		return fillInt[int8](leaves, math.MinInt8, math.MaxInt8)
	case Uint64:
		return fillUint[uint64](leaves, math.MaxUint64)
	case Uint32:
		return fillUint[uint32](leaves, math.MaxUint32)
	case Uint16:
		return fillUint[uint16](leaves, math.MaxUint16)
	case Uint8:
		return fillUint[uint8](leaves, math.MaxUint8)
	case Bool:
		out := make([]bool, len(leaves))
		for i, v := range leaves {
			switch b := v.(type) {
			case bool:
				out[i] = b
			default:
				f, ok := toFloat64(v)
				if !ok {
					return nil, decodeError("element %d (%v) is not a bool", i, v)
				}
				out[i] = f != 0
			}
		}
		return out, nil
	}
	return nil, decodeError("unsupported element type %q", dtype)
}

// fillFloat maps null to NaN, the inverse of how non-finite values are
// written.
func fillFloat[T float32 | float64](leaves []any) ([]T, error) {
	out := make([]T, len(leaves))
	for i, v := range leaves {
		if v == nil {
			out[i] = T(math.NaN())
			continue
		}
		f, ok := toFloat64(v)
		if !ok {
			return nil, decodeError("element %d (%v) is not a number", i, v)
		}
		out[i] = T(f)
	}
	return out, nil
}

func fillInt[T int64 | int32 | int16 | int8](leaves []any, lo, hi int64) ([]T, error) {
	out := make([]T, len(leaves))
	for i, v := range leaves {
		n, ok := toInt64(v)
		if !ok || n < lo || n > hi {
			return nil, decodeError("element %d (%v) does not fit %T", i, v, out[0])
		}
		out[i] = T(n)
	}
	return out, nil
}

func fillUint[T uint64 | uint32 | uint16 | uint8](leaves []any, hi uint64) ([]T, error) {
	out := make([]T, len(leaves))
	for i, v := range leaves {
		n, ok := toUint64(v)
		if !ok || n > hi {
			return nil, decodeError("element %d (%v) does not fit %T", i, v, out[0])
		}
		out[i] = T(n)
	}
	return out, nil
}
