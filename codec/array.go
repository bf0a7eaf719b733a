package codec

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/goliatone/go-errors"
)

// DType names an array element type. Values match the element type names
// written to the "data_type" field of stored arrays.
type DType string

const (
	Float64 DType = "float64"
	Float32 DType = "float32"
	Int64   DType = "int64"
	Int32   DType = "int32"
	Int16   DType = "int16"
	Int8    DType = "int8"
	Uint64  DType = "uint64"
	Uint32  DType = "uint32"
	Uint16  DType = "uint16"
	Uint8   DType = "uint8"
	Bool    DType = "bool"
)

// Element is the set of Go element types an Array can hold.
type Element interface {
	float64 | float32 | int64 | int32 | int16 | int8 | uint64 | uint32 | uint16 | uint8 | bool
}

// Array is an n-dimensional numeric array stored row-major with an explicit
// element type. The zero value is not usable; build arrays with NewArray.
//
// Arrays are immutable from the outside: constructors copy their input and
// accessors return copies.
type Array struct {
	dtype DType
	shape []int
	data  any
}

// NewArray copies values into a new Array. Without a shape the array is
// one-dimensional; otherwise the product of shape must equal len(values).
func NewArray[T Element](values []T, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, errors.New(fmt.Sprintf("negative dimension %d in shape %v", d, shape), errors.CategoryBadInput)
		}
		n *= d
	}
	if n != len(values) {
		return nil, errors.New(fmt.Sprintf("shape %v holds %d elements, got %d", shape, n, len(values)), errors.CategoryBadInput)
	}
	data := make([]T, len(values))
	copy(data, values)
	return &Array{dtype: dtypeOf[T](), shape: append([]int{}, shape...), data: data}, nil
}

// MustArray is NewArray that panics on a shape mismatch. Intended for
// literals in tests and examples.
func MustArray[T Element](values []T, shape ...int) *Array {
	a, err := NewArray(values, shape...)
	if err != nil {
		panic(err)
	}
	return a
}

// Scalar returns a zero-dimensional array holding v.
func Scalar[T Element](v T) *Array {
	return &Array{dtype: dtypeOf[T](), shape: []int{}, data: []T{v}}
}

// Values returns a copy of the flat row-major data when the array holds
// elements of type T.
func Values[T Element](a *Array) ([]T, bool) {
	if a == nil {
		return nil, false
	}
	data, ok := a.data.([]T)
	if !ok {
		return nil, false
	}
	out := make([]T, len(data))
	copy(out, data)
	return out, true
}

// DType returns the element type.
func (a *Array) DType() DType { return a.dtype }

// Shape returns a copy of the dimensions.
func (a *Array) Shape() []int { return append([]int{}, a.shape...) }

// Len returns the number of elements.
func (a *Array) Len() int {
	n := 1
	for _, d := range a.shape {
		n *= d
	}
	return n
}

// Float64s returns the elements converted to float64. Booleans become 0 or 1.
func (a *Array) Float64s() []float64 {
	out := make([]float64, a.Len())
	for i := range out {
		switch v := a.at(i).(type) {
		case bool:
			if v {
				out[i] = 1
			}
		default:
			f, _ := toFloat64(v)
			out[i] = f
		}
	}
	return out
}

// Bytes returns a fresh little-endian copy of the element buffer.
func (a *Array) Bytes() []byte {
	var buf []byte
	switch data := a.data.(type) {
	case []float64:
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	case []float32:
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	case []int64:
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(v))
		}
	case []int32:
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(v))
		}
	case []int16:
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(v))
		}
	case []int8:
		for _, v := range data {
			buf = append(buf, byte(v))
		}
	case []uint64:
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint64(buf, v)
		}
	case []uint32:
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint32(buf, v)
		}
	case []uint16:
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint16(buf, v)
		}
	case []uint8:
		buf = append(buf, data...)
	case []bool:
		for _, v := range data {
			if v {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
	}
	return buf
}

// Equal reports whether both arrays have the same dtype, shape and elements.
// NaN compares equal to NaN in the same position.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.dtype != b.dtype || len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	for i := 0; i < a.Len(); i++ {
		x, y := a.at(i), b.at(i)
		if fx, ok := x.(float64); ok {
			fy := y.(float64)
			if fx != fy && !(math.IsNaN(fx) && math.IsNaN(fy)) {
				return false
			}
			continue
		}
		if x != y {
			return false
		}
	}
	return true
}

func (a *Array) String() string {
	return fmt.Sprintf("Array(%s, shape=%v)", a.dtype, a.shape)
}

// MarshalJSON writes the tagged array record so arrays nested in structs
// keep their element type.
func (a *Array) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	return json.Marshal(a.record())
}

// UnmarshalJSON reads a tagged array record.
func (a *Array) UnmarshalJSON(data []byte) error {
	node, err := readJSON(data)
	if err != nil {
		return err
	}
	decoded, err := Decode(node)
	if err != nil {
		return err
	}
	got, ok := decoded.(*Array)
	if !ok {
		return decodeError("expected %s record, got %T", TagArray, decoded)
	}
	*a = *got
	return nil
}

func (a *Array) record() map[string]any {
	return map[string]any{
		fieldType:     TagArray,
		fieldDataType: string(a.dtype),
		fieldData:     a.nested(),
	}
}

// at returns element i widened for encoding: floats as float64, signed
// integers as int64, unsigned as uint64.
func (a *Array) at(i int) any {
	switch data := a.data.(type) {
	case []float64:
		return data[i]
	case []float32:
		return float64(data[i])
	case []int64:
		return data[i]
	case []int32:
		return int64(data[i])
	case []int16:
		return int64(data[i])
	case []int8:
		return int64(data[i])
	case []uint64:
		return data[i]
	case []uint32:
		return uint64(data[i])
	case []uint16:
		return uint64(data[i])
	case []uint8:
		return uint64(data[i])
	case []bool:
		return data[i]
	}
	return nil
}

// leaf is at with non-finite floats replaced by nil.
func (a *Array) leaf(i int) any {
	v := a.at(i)
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

// nested renders the array as nested lists following its shape.
func (a *Array) nested() any {
	if len(a.shape) == 0 {
		return a.leaf(0)
	}
	return a.nest(0, 0)
}

func (a *Array) nest(dim, offset int) []any {
	n := a.shape[dim]
	stride := 1
	for _, d := range a.shape[dim+1:] {
		stride *= d
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		if dim == len(a.shape)-1 {
			out[i] = a.leaf(offset + i)
		} else {
			out[i] = a.nest(dim+1, offset+i*stride)
		}
	}
	return out
}

func dtypeOf[T Element]() DType {
	var zero T
	switch any(zero).(type) {
	case float64:
		return Float64
	case float32:
		return Float32
	case int64:
		return Int64
	case int32:
		return Int32
	case int16:
		return Int16
	case int8:
		return Int8
	case uint64:
		return Uint64
	case uint32:
		return Uint32
	case uint16:
		return Uint16
	case uint8:
		return Uint8
	}
	return Bool
}

// AsArray converts the numeric-array-like values accepted by the key
// strategies into an Array. The result never aliases v.
func AsArray(v any) (*Array, error) {
	switch x := v.(type) {
	case *Array:
		if x == nil {
			return nil, errors.New("nil array", errors.CategoryBadInput)
		}
		return x.clone(), nil
	case Array:
		return x.clone(), nil
	case []float64:
		return NewArray(x)
	case []float32:
		return NewArray(x)
	case []int64:
		return NewArray(x)
	case []int32:
		return NewArray(x)
	case []int16:
		return NewArray(x)
	case []int8:
		return NewArray(x)
	case []uint64:
		return NewArray(x)
	case []uint32:
		return NewArray(x)
	case []uint16:
		return NewArray(x)
	case []uint8:
		return NewArray(x)
	case []bool:
		return NewArray(x)
	case []int:
		wide := make([]int64, len(x))
		for i, n := range x {
			wide[i] = int64(n)
		}
		return NewArray(wide)
	}
	return nil, errors.New(fmt.Sprintf("%T is not a numeric array", v), errors.CategoryBadInput)
}

func (a *Array) clone() *Array {
	out := &Array{dtype: a.dtype, shape: a.Shape()}
	switch data := a.data.(type) {
	case []float64:
		out.data = append([]float64{}, data...)
	case []float32:
		out.data = append([]float32{}, data...)
	case []int64:
		out.data = append([]int64{}, data...)
	case []int32:
		out.data = append([]int32{}, data...)
	case []int16:
		out.data = append([]int16{}, data...)
	case []int8:
		out.data = append([]int8{}, data...)
	case []uint64:
		out.data = append([]uint64{}, data...)
	case []uint32:
		out.data = append([]uint32{}, data...)
	case []uint16:
		out.data = append([]uint16{}, data...)
	case []uint8:
		out.data = append([]uint8{}, data...)
	case []bool:
		out.data = append([]bool{}, data...)
	}
	return out
}
