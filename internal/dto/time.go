package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// TimestampHint describes the accepted timestamp formats.
const TimestampHint = "use date (YYYY-MM-DD) or RFC3339 datetime"

var timestampLayouts = []string{
	"2006-01-02",     // date only
	time.RFC3339,     // 2006-01-02T15:04:05Z07:00
	time.RFC3339Nano, // with nanoseconds
	"2006-01-02T15:04:05",
}

// ParseTimestamp accepts a date ("2006-01-02", start of day UTC), RFC3339 or a
// zone-less datetime read as UTC. The result is always UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, errors.New(TimestampHint)
}

// Timestamp is a lenient JSON timestamp. null and "" decode to no value.
// Text that does not parse is kept in Raw and rejected by the "timestamp"
// validation tag, so the error carries the JSON field name.
type Timestamp struct {
	t   *time.Time
	raw string
}

func (d *Timestamp) UnmarshalJSON(data []byte) error {
	d.t, d.raw = nil, ""
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		d.raw = string(bytes.TrimSpace(data))
		return nil
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	d.raw = strings.TrimSpace(*raw)
	if parsed, err := ParseTimestamp(d.raw); err == nil {
		d.t = &parsed
	}
	return nil
}

// Raw is the trimmed input text; empty when the value was absent or null.
func (d Timestamp) Raw() string { return d.raw }

// Ptr returns *time.Time for use in service/domain.
func (d Timestamp) Ptr() *time.Time { return d.t }

// Nullable tells apart a field that was absent, explicitly null, or set.
type Nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Null = true
		var zero T
		n.Value = zero
		return nil
	}
	n.Null = false
	return json.Unmarshal(data, &n.Value)
}
