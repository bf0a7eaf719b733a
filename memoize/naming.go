package memoize

import (
	"reflect"
	"runtime"
	"strings"
	"unicode"
)

// QualifiedName returns "<import path>.<function>" for fn with "/" rendered
// as ".", e.g. "github.com.acme.geo.Square". Generic instantiation lists,
// receiver punctuation and method value suffixes are stripped so the result
// is usable as a directory name. It returns "" when fn is not a function.
func QualifiedName(fn any) string {
	if fn == nil {
		return ""
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	return sanitizeName(f.Name())
}

// sanitizeName keeps letters, digits, '.', '_' and '-' and turns every other
// run of characters into a single '_'. Path separators become '.'.
func sanitizeName(s string) string {
	s = strings.TrimSuffix(s, "-fm")
	s = stripBrackets(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false

	for _, r := range s {
		switch {
		case r == '/' || r == '.':
			// "(*T)." leaves a dangling underscore before the dot
			out := strings.TrimSuffix(b.String(), "_")
			b.Reset()
			b.WriteString(out)
			if b.Len() > 0 && !strings.HasSuffix(out, ".") {
				b.WriteByte('.')
			}
			lastUnderscore = false

		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			b.WriteRune(r)
			lastUnderscore = false

		default:
			if !lastUnderscore && b.Len() > 0 && !strings.HasSuffix(b.String(), ".") {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	return strings.Trim(b.String(), "._")
}

// stripBrackets drops "[...]" groups, which appear in the names of generic
// instantiations.
func stripBrackets(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '[':
			depth++
		case r == ']':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
