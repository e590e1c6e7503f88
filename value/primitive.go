package value

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the absent value, distinct from nil (null).
var Undefined any = undefined{}

// IsUndefined reports whether v is Undefined.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// RegExp is a regular-expression pattern with its flag letters, for example
// Source "^a+b" with Flags "gi".
type RegExp struct {
	Source string
	Flags  string
}

// NewRegExp creates a pattern value.
func NewRegExp(source, flags string) *RegExp {
	return &RegExp{Source: source, Flags: flags}
}

// String renders the pattern as /source/flags.
func (r *RegExp) String() string {
	return "/" + r.Source + "/" + r.Flags
}

// Compile builds a Go regexp honoring the i, m and s flags. Other flags only
// affect how a pattern is applied, not what it matches, and are ignored.
func (r *RegExp) Compile() (*regexp.Regexp, error) {
	var inline strings.Builder
	for _, f := range r.Flags {
		switch f {
		case 'i', 'm', 's':
			inline.WriteRune(f)
		case 'g', 'y', 'u', 'd', 'v':
		default:
			return nil, fmt.Errorf("value: unknown regexp flag %q", f)
		}
	}

	expr := r.Source
	if inline.Len() > 0 {
		expr = "(?" + inline.String() + ")" + expr
	}

	return regexp.Compile(expr)
}

// Date is a point in time with millisecond precision.
type Date struct {
	UnixMilli int64
}

// NewDate creates a date from t, truncated to milliseconds.
func NewDate(t time.Time) *Date {
	return &Date{UnixMilli: t.UnixMilli()}
}

// Time returns the date as a UTC time.Time.
func (d *Date) Time() time.Time {
	return time.UnixMilli(d.UnixMilli).UTC()
}

// String renders the date in RFC 3339 with milliseconds.
func (d *Date) String() string {
	return d.Time().Format("2006-01-02T15:04:05.000Z07:00")
}
