package codec

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// maxDepth bounds the reflection walk so cyclic values fail instead of
// recursing forever.
const maxDepth = 512

// Encode converts v into the tagged interchange tree. Rules are checked in
// order and the first match wins:
//
//  1. *Array            -> {"type": "numpy.ndarray", "data_type": ..., "data": [...]}
//  2. time.Time         -> {"type": "datetime.datetime", "data": "YYYY-MM-DDTHH:MM:SS.ffffffZ"}
//  3. Date              -> {"type": "datetime.date", "data": "YYYY-MM-DD"}
//  4. time.Duration     -> "YYYY-MM-DD" of 0001-01-01 plus the duration (lossy)
//  5. *Frame            -> {"type": "pandas.DataFrame", "data": {...}}, or the raw
//     row matrix when column names or index labels repeat
//  6. everything else   -> maps, slices and pointers are walked; structs and
//     marshalers go through encoding/json
//
// Non-finite floats are written as nil.
func Encode(v any) (any, error) {
	return encode(v, 0)
}

func encode(v any, depth int) (any, error) {
	if depth > maxDepth {
		return nil, serializationError("value nesting exceeds %d levels", maxDepth)
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *Array:
		if x == nil {
			return nil, nil
		}
		return x.record(), nil
	case Array:
		return x.record(), nil
	case time.Time:
		return dateTimeRecord(x), nil
	case Date:
		return dateRecord(x), nil
	case time.Duration:
		return durationText(x)
	case *Frame:
		if x == nil {
			return nil, nil
		}
		return encodeFrame(x)
	case Frame:
		return encodeFrame(&x)
	case bool, string, json.Number:
		return x, nil
	case float64:
		return finite(x), nil
	case float32:
		return finite(float64(x)), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return x, nil
	case json.Marshaler, encoding.TextMarshaler:
		return delegate(v)
	}
	return encodeValue(reflect.ValueOf(v), depth)
}

func encodeValue(rv reflect.Value, depth int) (any, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return encode(rv.Elem().Interface(), depth+1)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return delegate(rv.Interface())
		}
		if rv.IsNil() {
			return nil, nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			item, err := encode(iter.Value().Interface(), depth+1)
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = item
		}
		return out, nil
	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return delegate(rv.Interface())
		}
		return encodeList(rv, depth)
	case reflect.Array:
		return encodeList(rv, depth)
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return finite(rv.Float()), nil
	}
	return delegate(rv.Interface())
}

func encodeList(rv reflect.Value, depth int) (any, error) {
	out := make([]any, rv.Len())
	for i := range out {
		item, err := encode(rv.Index(i).Interface(), depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = item
	}
	return out, nil
}

// delegate hands v to encoding/json and reads the result back as a plain
// tree.
func delegate(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, wrapSerialization(err, fmt.Sprintf("cannot encode %T", v))
	}
	node, err := readJSON(raw)
	if err != nil {
		return nil, wrapSerialization(err, fmt.Sprintf("cannot encode %T", v))
	}
	return settleNumbers(node), nil
}

// settleNumbers replaces json.Number leaves with int64 when integral and
// float64 otherwise, so the tree is safe for every output format.
func settleNumbers(node any) any {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			n[k] = settleNumbers(v)
		}
		return n
	case []any:
		for i, v := range n {
			n[i] = settleNumbers(v)
		}
		return n
	case json.Number:
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return i
		}
		f, _ := n.Float64()
		return f
	}
	return node
}

func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
