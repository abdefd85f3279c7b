package core

// validation.go provides the field-level checks shared by every import kind.
//
// Each check returns a ValidationError naming the field, the offending value
// and a human-readable message; the message becomes the row error text.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Field/column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// MissingFieldsError lists required fields that were empty after defaulting.
type MissingFieldsError struct {
	Fields []string
}

func (e MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// RequireFields checks that every named column has a non-empty value.
func RequireFields(rec Record, names ...string) error {
	var missing []string
	for _, n := range names {
		if rec.Get(n) == "" {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return MissingFieldsError{Fields: missing}
	}
	return nil
}

// IntInRange parses an optional integer column. Empty yields def.
func IntInRange(field, raw string, def, lo, hi int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, ValidationError{
			Field:   field,
			Value:   raw,
			Message: fmt.Sprintf("must be an integer between %d and %d", lo, hi),
		}
	}
	return n, nil
}

// PositiveInt parses an optional integer column that must be at least 1.
func PositiveInt(field, raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ValidationError{Field: field, Value: raw, Message: "must be a positive integer"}
	}
	return n, nil
}

var falsy = map[string]bool{
	"false": true, "0": true, "no": true, "n": true, "f": true, "off": true,
}

// ParseActive reports false only for an explicitly falsy flag.
// Empty and unrecognized values are treated as active.
func ParseActive(raw string) bool {
	return !falsy[strings.ToLower(strings.TrimSpace(raw))]
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s has the local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

var (
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(field, raw string) (time.Time, error) {
	bad := ValidationError{Field: field, Value: raw, Message: "must be a date in YYYY-MM-DD format"}
	if !datePattern.MatchString(raw) {
		return time.Time{}, bad
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, bad
	}
	return t, nil
}

// ParseClock parses an HH:MM time of day into an offset from midnight.
func ParseClock(field, raw string) (time.Duration, error) {
	bad := ValidationError{Field: field, Value: raw, Message: "must be a time in HH:MM format"}
	if !clockPattern.MatchString(raw) {
		return 0, bad
	}
	h, _ := strconv.Atoi(raw[:2])
	m, _ := strconv.Atoi(raw[3:])
	if h > 23 || m > 59 {
		return 0, bad
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// FormatClock renders an offset from midnight as HH:MM.
func FormatClock(d time.Duration) string {
	total := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// OneOf matches raw case-insensitively against allowed values.
// Empty yields def.
func OneOf[T ~string](field, raw string, def T, allowed []T) (T, error) {
	if raw == "" {
		return def, nil
	}
	for _, a := range allowed {
		if strings.EqualFold(raw, string(a)) {
			return a, nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return "", ValidationError{
		Field:   field,
		Value:   raw,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(names, ", ")),
	}
}

// Optional returns nil for an empty value.
func Optional(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}
