package codec

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Format selects the byte representation of the tagged tree.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat accepts a format name case-insensitively. An empty name
// selects JSON.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatMsgpack:
		return FormatMsgpack, nil
	}
	return "", errors.New(fmt.Sprintf("unknown codec format %q", name), errors.CategoryBadInput).
		WithTextCode("UNKNOWN_FORMAT")
}

// Codec turns values into cache file contents and back.
type Codec struct {
	format Format
}

// Default writes JSON, the format every entry reader understands.
var Default = &Codec{format: FormatJSON}

// New returns a codec for format.
func New(format Format) (*Codec, error) {
	f, err := ParseFormat(string(format))
	if err != nil {
		return nil, err
	}
	return &Codec{format: f}, nil
}

// Name returns the format name.
func (c *Codec) Name() string { return string(c.format) }

// Format returns the selected format.
func (c *Codec) Format() Format { return c.format }

// Marshal encodes v and writes the tree in the codec format.
func (c *Codec) Marshal(v any) ([]byte, error) {
	node, err := Encode(v)
	if err != nil {
		return nil, err
	}
	return c.write(node)
}

// Unmarshal reads data and reconstructs tagged values. The result holds
// plain Go values: map[string]any, []any, int64, float64, string, bool, nil,
// *Array, time.Time, Date and *Frame.
func (c *Codec) Unmarshal(data []byte) (any, error) {
	node, err := c.read(data)
	if err != nil {
		return nil, err
	}
	return Decode(node)
}

// UnmarshalInto decodes data into out, which must be a non-nil pointer.
// Decoded values are assigned element by element so that nil in a float
// position reads back as NaN, the inverse of how non-finite floats are
// written. Structs and custom unmarshalers are filled through encoding/json.
func (c *Codec) UnmarshalInto(data []byte, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New(fmt.Sprintf("UnmarshalInto needs a non-nil pointer, got %T", out), errors.CategoryBadInput)
	}
	node, err := c.read(data)
	if err != nil {
		return err
	}
	decoded, err := Decode(node)
	if err != nil {
		return err
	}
	return assign(rv.Elem(), decoded)
}

var (
	jsonUnmarshalerType = reflect.TypeFor[json.Unmarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// assign stores the decoded value v into the addressable dst.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		switch dst.Kind() {
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(math.NaN())
		default:
			dst.Set(reflect.Zero(dst.Type()))
		}
		return nil
	}
	if vv := reflect.ValueOf(v); vv.Type().AssignableTo(dst.Type()) {
		dst.Set(vv)
		return nil
	}
	if pt := dst.Addr().Type(); pt.Implements(jsonUnmarshalerType) || pt.Implements(textUnmarshalerType) {
		return assignJSON(dst, v)
	}

	switch dst.Kind() {
	case reflect.Float32, reflect.Float64:
		if f, ok := toFloat64(v); ok && !dst.OverflowFloat(f) {
			dst.SetFloat(f)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n, ok := toInt64(v); ok && !dst.OverflowInt(n) {
			dst.SetInt(n)
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if n, ok := toUint64(v); ok && !dst.OverflowUint(n) {
			dst.SetUint(n)
			return nil
		}
	case reflect.Slice:
		if list, ok := v.([]any); ok && dst.Type().Elem().Kind() != reflect.Uint8 {
			out := reflect.MakeSlice(dst.Type(), len(list), len(list))
			for i, item := range list {
				if err := assign(out.Index(i), item); err != nil {
					return err
				}
			}
			dst.Set(out)
			return nil
		}
	case reflect.Array:
		if list, ok := v.([]any); ok && len(list) == dst.Len() {
			for i, item := range list {
				if err := assign(dst.Index(i), item); err != nil {
					return err
				}
			}
			return nil
		}
	case reflect.Map:
		if m, ok := v.(map[string]any); ok && dst.Type().Key().Kind() == reflect.String {
			out := reflect.MakeMapWithSize(dst.Type(), len(m))
			for k, item := range m {
				elem := reflect.New(dst.Type().Elem()).Elem()
				if err := assign(elem, item); err != nil {
					return err
				}
				out.SetMapIndex(reflect.ValueOf(k).Convert(dst.Type().Key()), elem)
			}
			dst.Set(out)
			return nil
		}
	case reflect.Pointer:
		p := reflect.New(dst.Type().Elem())
		if err := assign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}
	return assignJSON(dst, v)
}

// assignJSON re-encodes v and lets encoding/json fill dst. Structs only
// reach disk through encoding/json, which refuses non-finite floats, so no
// NaN can hide behind a nil here.
func assignJSON(dst reflect.Value, v any) error {
	node, err := Encode(v)
	if err != nil {
		return wrapDecode(err, "cannot re-read entry")
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return wrapDecode(err, "cannot re-read entry")
	}
	if err := json.Unmarshal(raw, dst.Addr().Interface()); err != nil {
		return wrapDecode(err, fmt.Sprintf("entry does not fit %s", dst.Type()))
	}
	return nil
}

func (c *Codec) write(node any) ([]byte, error) {
	switch c.format {
	case FormatMsgpack:
		data, err := msgpack.Marshal(node)
		if err != nil {
			return nil, wrapSerialization(err, "msgpack encode")
		}
		return data, nil
	default:
		data, err := json.Marshal(floatLiterals(node))
		if err != nil {
			return nil, wrapSerialization(err, "json encode")
		}
		return data, nil
	}
}

func (c *Codec) read(data []byte) (any, error) {
	if c.format != FormatMsgpack {
		return readJSON(data)
	}
	r := bytes.NewReader(data)
	var node any
	if err := msgpack.NewDecoder(r).Decode(&node); err != nil {
		return nil, wrapDecode(err, "malformed msgpack entry")
	}
	if r.Len() > 0 {
		return nil, decodeError("trailing data after msgpack entry")
	}
	return node, nil
}

// Canonical renders v as compact JSON of its tagged tree. Map keys are
// sorted, so equal values always render to equal bytes.
func Canonical(v any) ([]byte, error) {
	node, err := Encode(v)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(node)
	if err != nil {
		return nil, wrapSerialization(err, "canonical form")
	}
	return data, nil
}
