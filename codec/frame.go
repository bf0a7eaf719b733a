package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
)

// Column dtype names used for non-numeric series.
const (
	ObjectDType   = "object"
	DateTimeDType = "datetime64[ns]"
)

// Series is a named frame column. Values holds a one-dimensional *Array,
// a []string or a []time.Time.
type Series struct {
	Name   string
	Values any
}

// NumericSeries builds a column backed by a one-dimensional array.
func NumericSeries(name string, values *Array) Series {
	return Series{Name: name, Values: values}
}

// StringSeries builds an object column.
func StringSeries(name string, values []string) Series {
	return Series{Name: name, Values: append([]string{}, values...)}
}

// TimeSeries builds a datetime column.
func TimeSeries(name string, values []time.Time) Series {
	return Series{Name: name, Values: append([]time.Time{}, values...)}
}

// Len returns the number of cells, or -1 for an unsupported Values type.
func (s Series) Len() int {
	switch v := s.Values.(type) {
	case *Array:
		if v == nil || len(v.shape) != 1 {
			return -1
		}
		return v.Len()
	case []string:
		return len(v)
	case []time.Time:
		return len(v)
	}
	return -1
}

// DType returns the column dtype name.
func (s Series) DType() string {
	switch v := s.Values.(type) {
	case *Array:
		return string(v.dtype)
	case []time.Time:
		return DateTimeDType
	}
	return ObjectDType
}

func (s Series) cell(i int) any {
	switch v := s.Values.(type) {
	case *Array:
		return v.leaf(i)
	case []string:
		return v[i]
	case []time.Time:
		return dateTimeRecord(v[i])
	}
	return nil
}

func (s Series) equal(o Series) bool {
	if s.Name != o.Name || s.DType() != o.DType() || s.Len() != o.Len() {
		return false
	}
	switch v := s.Values.(type) {
	case *Array:
		return v.Equal(o.Values.(*Array))
	case []string:
		w := o.Values.([]string)
		for i := range v {
			if v[i] != w[i] {
				return false
			}
		}
	case []time.Time:
		w := o.Values.([]time.Time)
		for i := range v {
			if !v[i].Equal(w[i]) {
				return false
			}
		}
	}
	return true
}

// Frame is a table of equally long named columns with an optional string
// index.
type Frame struct {
	Index   []string
	Columns []Series
}

// NewFrame validates that every column matches the index length (or the
// first column's length when index is nil).
func NewFrame(index []string, columns ...Series) (*Frame, error) {
	f := &Frame{Index: index, Columns: columns}
	if _, err := f.rows(); err != nil {
		return nil, err
	}
	return f, nil
}

// Rows returns the number of rows.
func (f *Frame) Rows() int {
	n, _ := f.rows()
	return n
}

// Column finds a column by name.
func (f *Frame) Column(name string) (Series, bool) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Series{}, false
}

// Equal compares index labels, column order, names, dtypes and cells.
func (f *Frame) Equal(g *Frame) bool {
	if f == nil || g == nil {
		return f == g
	}
	if (f.Index == nil) != (g.Index == nil) || len(f.Index) != len(g.Index) || len(f.Columns) != len(g.Columns) {
		return false
	}
	for i := range f.Index {
		if f.Index[i] != g.Index[i] {
			return false
		}
	}
	for i := range f.Columns {
		if !f.Columns[i].equal(g.Columns[i]) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the frame the same way the codec does.
func (f *Frame) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	node, err := encodeFrame(f)
	if err != nil {
		return nil, err
	}
	return json.Marshal(node)
}

// UnmarshalJSON reads a tagged frame record.
func (f *Frame) UnmarshalJSON(data []byte) error {
	node, err := readJSON(data)
	if err != nil {
		return err
	}
	decoded, err := Decode(node)
	if err != nil {
		return err
	}
	got, ok := decoded.(*Frame)
	if !ok {
		return decodeError("expected %s record, got %T", TagFrame, decoded)
	}
	*f = *got
	return nil
}

func (f *Frame) rows() (int, error) {
	n := len(f.Index)
	if f.Index == nil && len(f.Columns) > 0 {
		n = f.Columns[0].Len()
	}
	for _, c := range f.Columns {
		l := c.Len()
		if l < 0 {
			return 0, errors.New(fmt.Sprintf("column %q holds unsupported values %T", c.Name, c.Values), errors.CategoryBadInput)
		}
		if l != n {
			return 0, errors.New(fmt.Sprintf("column %q has %d rows, frame has %d", c.Name, l, n), errors.CategoryBadInput)
		}
	}
	return n, nil
}

func (f *Frame) matrix(rows int) []any {
	out := make([]any, rows)
	for r := 0; r < rows; r++ {
		row := make([]any, len(f.Columns))
		for c, col := range f.Columns {
			row[c] = col.cell(r)
		}
		out[r] = row
	}
	return out
}

// structured reports whether the frame can be written in split form:
// column names and index labels must be unique.
func (f *Frame) structured() bool {
	seen := make(map[string]struct{}, len(f.Columns))
	for _, c := range f.Columns {
		if _, dup := seen[c.Name]; dup {
			return false
		}
		seen[c.Name] = struct{}{}
	}
	labels := make(map[string]struct{}, len(f.Index))
	for _, l := range f.Index {
		if _, dup := labels[l]; dup {
			return false
		}
		labels[l] = struct{}{}
	}
	return true
}

func encodeFrame(f *Frame) (any, error) {
	rows, err := f.rows()
	if err != nil {
		return nil, wrapSerialization(err, "frame")
	}
	if !f.structured() {
		return f.matrix(rows), nil
	}
	columns := make([]any, len(f.Columns))
	dtypes := make([]any, len(f.Columns))
	for i, c := range f.Columns {
		columns[i] = c.Name
		dtypes[i] = c.DType()
	}
	var index any
	if f.Index != nil {
		labels := make([]any, len(f.Index))
		for i, l := range f.Index {
			labels[i] = l
		}
		index = labels
	}
	return map[string]any{
		fieldType: TagFrame,
		fieldData: map[string]any{
			"columns": columns,
			"index":   index,
			"dtypes":  dtypes,
			"data":    f.matrix(rows),
		},
	}, nil
}

func decodeFrame(payload any) (*Frame, error) {
	body, ok := payload.(map[string]any)
	if !ok {
		return nil, decodeError("frame payload is %T", payload)
	}
	names, err := stringList(body["columns"], "columns")
	if err != nil {
		return nil, err
	}
	dtypes, err := stringList(body["dtypes"], "dtypes")
	if err != nil {
		return nil, err
	}
	if len(dtypes) != len(names) {
		return nil, decodeError("frame has %d columns but %d dtypes", len(names), len(dtypes))
	}
	var index []string
	if body["index"] != nil {
		if index, err = stringList(body["index"], "index"); err != nil {
			return nil, err
		}
	}
	rows, ok := body["data"].([]any)
	if !ok {
		return nil, decodeError("frame data is %T", body["data"])
	}
	if index != nil && len(index) != len(rows) {
		return nil, decodeError("frame has %d index labels but %d rows", len(index), len(rows))
	}

	cells := make([][]any, len(names))
	for c := range cells {
		cells[c] = make([]any, len(rows))
	}
	for r, raw := range rows {
		row, ok := raw.([]any)
		if !ok || len(row) != len(names) {
			return nil, decodeError("frame row %d is malformed", r)
		}
		for c := range names {
			cells[c][r] = row[c]
		}
	}

	columns := make([]Series, len(names))
	for c, name := range names {
		values, err := seriesValues(dtypes[c], cells[c])
		if err != nil {
			return nil, wrapDecode(err, fmt.Sprintf("frame column %q", name))
		}
		columns[c] = Series{Name: name, Values: values}
	}
	return &Frame{Index: index, Columns: columns}, nil
}

func seriesValues(dtype string, cells []any) (any, error) {
	switch dtype {
	case ObjectDType:
		out := make([]string, len(cells))
		for i, v := range cells {
			s, ok := v.(string)
			if !ok {
				return nil, decodeError("object cell %d is %T", i, v)
			}
			out[i] = s
		}
		return out, nil
	case DateTimeDType:
		out := make([]time.Time, len(cells))
		for i, v := range cells {
			decoded, err := Decode(v)
			if err != nil {
				return nil, err
			}
			t, ok := decoded.(time.Time)
			if !ok {
				return nil, decodeError("datetime cell %d is %T", i, decoded)
			}
			out[i] = t
		}
		return out, nil
	}
	data, err := fillElements(DType(dtype), cells)
	if err != nil {
		return nil, err
	}
	return &Array{dtype: DType(dtype), shape: []int{len(cells)}, data: data}, nil
}

func stringList(v any, field string) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, decodeError("frame %s is %T", field, v)
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, decodeError("frame %s[%d] is %T", field, i, item)
		}
		out[i] = s
	}
	return out, nil
}
