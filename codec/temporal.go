package codec

import (
	"encoding/json"
	"reflect"
	"time"
)

// Layouts of the stored date/time strings. The datetime layout always
// carries six fractional digits and a literal Z.
const (
	DateTimeLayout = "2006-01-02T15:04:05.000000Z"
	DateLayout     = "2006-01-02"
)

// minDateTime is year 1, January 1st. Durations are stored as the date
// reached by adding them to it.
var minDateTime = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// NewDate builds a Date, normalizing out-of-range months and days the way
// time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// MarshalJSON writes the tagged date record.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(dateRecord(d))
}

// UnmarshalJSON reads a tagged date record.
func (d *Date) UnmarshalJSON(data []byte) error {
	node, err := readJSON(data)
	if err != nil {
		return err
	}
	decoded, err := Decode(node)
	if err != nil {
		return err
	}
	got, ok := decoded.(Date)
	if !ok {
		return decodeError("expected %s record, got %T", TagDate, decoded)
	}
	*d = got
	return nil
}

func dateTimeRecord(t time.Time) map[string]any {
	return map[string]any{
		fieldType: TagDateTime,
		fieldData: t.UTC().Format(DateTimeLayout),
	}
}

func dateRecord(d Date) map[string]any {
	return map[string]any{
		fieldType: TagDate,
		fieldData: d.String(),
	}
}

// ReadsBack reports whether an entry written for a value of type t can be
// decoded into t again. Durations are written as dates and cannot.
func ReadsBack(t reflect.Type) bool {
	return t != reflect.TypeFor[time.Duration]()
}

// durationText renders d as the date reached by adding it to the minimum
// datetime. Anything below one day collapses to "0001-01-01".
func durationText(d time.Duration) (string, error) {
	if d < 0 {
		return "", serializationError("negative duration %s is not representable", d)
	}
	return minDateTime.Add(d).Format(DateLayout), nil
}

func parseDateTime(s string) (time.Time, error) {
	return time.Parse(DateTimeLayout, s)
}
