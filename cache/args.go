package cache

import "sort"

// Args is the argument set of one memoized call: ordered positional
// arguments plus named ones. Named arguments have no order; every consumer
// visits them sorted by name.
type Args struct {
	Positional []any
	Named      map[string]any
}

// Positional builds an Args from positional values.
func Positional(values ...any) Args {
	return Args{Positional: values}
}

// With returns a copy of a with the named argument set.
func (a Args) With(name string, value any) Args {
	named := make(map[string]any, len(a.Named)+1)
	for k, v := range a.Named {
		named[k] = v
	}
	named[name] = value
	return Args{Positional: a.Positional, Named: named}
}

// Len returns the total number of arguments.
func (a Args) Len() int {
	return len(a.Positional) + len(a.Named)
}

// Names returns the named argument names in sorted order.
func (a Args) Names() []string {
	names := make([]string, 0, len(a.Named))
	for name := range a.Named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the positional argument at pos, or the named argument name
// when there are not enough positional arguments.
func (a Args) Lookup(pos int, name string) (any, bool) {
	if pos >= 0 && pos < len(a.Positional) {
		return a.Positional[pos], true
	}
	v, ok := a.Named[name]
	return v, ok
}
