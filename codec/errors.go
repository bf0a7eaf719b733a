package codec

import (
	stderrors "errors"
	"fmt"

	"github.com/goliatone/go-errors"
)

// Text codes attached to codec failures. The cache package exposes
// predicates over them.
const (
	TextCodeSerialization = "SERIALIZATION"
	TextCodeDecode        = "DECODE"
)

func serializationError(format string, args ...any) error {
	return errors.New(fmt.Sprintf(format, args...), errors.CategoryBadInput).
		WithTextCode(TextCodeSerialization)
}

func wrapSerialization(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, errors.CategoryBadInput, message).
		WithTextCode(TextCodeSerialization)
}

func decodeError(format string, args ...any) error {
	return errors.New(fmt.Sprintf(format, args...), errors.CategoryOperation).
		WithTextCode(TextCodeDecode)
}

func wrapDecode(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, errors.CategoryOperation, message).
		WithTextCode(TextCodeDecode)
}

// IsSerialization reports whether err was produced while encoding a value.
func IsSerialization(err error) bool {
	return hasTextCode(err, TextCodeSerialization)
}

// IsDecode reports whether err was produced while decoding an entry.
func IsDecode(err error) bool {
	return hasTextCode(err, TextCodeDecode)
}

func hasTextCode(err error, code string) bool {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.TextCode == code
	}
	return false
}
