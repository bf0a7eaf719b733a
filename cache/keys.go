package cache

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/goliatone/go-memocache/codec"
)

// KeyStrategy maps the arguments of a call to an entry key. Strategies must
// be deterministic across processes: equal arguments give equal keys.
type KeyStrategy func(args Args) (string, error)

// Built-in strategy names accepted by KeyStrategyByName.
const (
	StrategyJoin      = "join"
	StrategyConcat    = "concat"
	StrategyArray     = "array"
	StrategyOne       = "one"
	StrategyDatePlace = "date_place"
)

// maxKeyLength is the longest file name most filesystems accept.
const maxKeyLength = 255

const (
	joinSeparator   = "\x1f"
	concatSeparator = "_"
)

// JoinKey hashes the canonical encoding of every argument. Positional
// arguments come first, then named arguments sorted by name and written as
// "name=value". Any argument the codec can encode is accepted.
func JoinKey(args Args) (string, error) {
	parts := make([]string, 0, args.Len())
	for i, v := range args.Positional {
		data, err := codec.Canonical(v)
		if err != nil {
			return "", NewInvalidKeyError("join key: argument %d: %v", i, err)
		}
		parts = append(parts, string(data))
	}
	for _, name := range args.Names() {
		data, err := codec.Canonical(args.Named[name])
		if err != nil {
			return "", NewInvalidKeyError("join key: argument %q: %v", name, err)
		}
		parts = append(parts, name+"="+string(data))
	}
	return hashString(strings.Join(parts, joinSeparator)), nil
}

// ConcatKey joins the default text form of every argument with "_". It does
// not hash, so keys stay readable: square(4) is stored as "4".
func ConcatKey(args Args) (string, error) {
	if args.Len() == 0 {
		return "", NewInvalidKeyError("concat key needs at least one argument")
	}
	parts := make([]string, 0, args.Len())
	for _, v := range args.Positional {
		parts = append(parts, fmt.Sprint(v))
	}
	for _, name := range args.Names() {
		parts = append(parts, fmt.Sprint(args.Named[name]))
	}
	return strings.Join(parts, concatSeparator), nil
}

// ArrayKey hashes the element type, shape and raw element bytes of the
// first argument, which must be a *codec.Array or a numeric slice. The
// argument is copied before hashing and never modified.
func ArrayKey(args Args) (string, error) {
	v, ok := args.Lookup(0, "array")
	if !ok {
		return "", NewInvalidKeyError("array key needs an array argument")
	}
	arr, err := codec.AsArray(v)
	if err != nil {
		return "", NewInvalidKeyError("array key: %v", err)
	}

	d := xxhash.New()
	_, _ = d.WriteString(string(arr.DType()))
	_, _ = fmt.Fprint(d, arr.Shape())
	_, _ = d.Write(arr.Bytes())
	return strconv.FormatUint(d.Sum64(), 10), nil
}

// ConstantKey returns a strategy that ignores the arguments, for functions
// whose result does not depend on them.
func ConstantKey(key string) KeyStrategy {
	return func(Args) (string, error) {
		return key, nil
	}
}

// OneKey caches a single result per function.
var OneKey = ConstantKey("one_key")

// DatePlaceKey keys calls of the form f(geom, years). The geometry is the
// first positional argument or the named argument "geom"; years is the
// second positional argument or the named argument "years" and must be a
// slice or array.
func DatePlaceKey(args Args) (string, error) {
	geom, ok := args.Lookup(0, "geom")
	if !ok {
		return "", NewInvalidKeyError("date/place key needs a geometry")
	}
	years, ok := args.Lookup(1, "years")
	if !ok {
		return "", NewInvalidKeyError("date/place key needs years")
	}

	var b strings.Builder
	if arr, isArray := years.(*codec.Array); isArray {
		for _, y := range arr.Float64s() {
			b.WriteString(strconv.FormatFloat(y, 'f', -1, 64))
		}
	} else {
		rv := reflect.ValueOf(years)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return "", NewInvalidKeyError("date/place key: years must be a sequence, got %T", years)
		}
		for i := 0; i < rv.Len(); i++ {
			b.WriteString(fmt.Sprint(rv.Index(i).Interface()))
		}
	}

	shape, err := codec.Canonical(geom)
	if err != nil {
		return "", NewInvalidKeyError("date/place key: geometry: %v", err)
	}
	b.Write(shape)
	return hashString(b.String()), nil
}

// KeyStrategyByName resolves a built-in strategy.
func KeyStrategyByName(name string) (KeyStrategy, error) {
	switch name {
	case StrategyJoin, "":
		return JoinKey, nil
	case StrategyConcat:
		return ConcatKey, nil
	case StrategyArray:
		return ArrayKey, nil
	case StrategyOne:
		return OneKey, nil
	case StrategyDatePlace:
		return DatePlaceKey, nil
	}
	return nil, NewInvalidKeyError("unknown key strategy %q", name)
}

// ValidateKey checks that key can be used as a single file name inside a
// cache directory.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return NewInvalidKeyError("key is empty")
	case key == "." || key == "..":
		return NewInvalidKeyError("key %q is a directory reference", key)
	case strings.ContainsAny(key, `/\`):
		return NewInvalidKeyError("key %q contains a path separator", key)
	case strings.ContainsRune(key, 0):
		return NewInvalidKeyError("key contains a NUL byte")
	case len(key) > maxKeyLength:
		return NewInvalidKeyError("key is %d bytes long, limit is %d", len(key), maxKeyLength)
	}
	return nil
}

func hashString(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 10)
}
