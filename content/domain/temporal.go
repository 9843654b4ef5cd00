package domain

import (
	"strings"
	"time"
)

// Input layouts accepted from clients and legacy documents. Canonical form
// is always UTC RFC 3339, produced by FormatDate.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeDate coerces a date-like string into a canonical UTC timestamp.
// Empty strings and values that fail every layout return nil rather than an
// error: malformed client input drops the field instead of aborting the
// request.
func NormalizeDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			utc := t.UTC()
			return &utc
		}
	}

	return nil
}

// FormatDate renders a timestamp in the canonical stored form.
func FormatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// FormatOptionalDate renders a nullable timestamp, nil staying nil.
func FormatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatDate(*t)
	return &s
}
