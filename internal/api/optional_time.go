package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// dueDateLayouts are tried in order. Layouts without an offset are read as UTC,
// which covers values sent by an HTML datetime-local input.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ErrInvalidDueDate is returned for a due_date that cannot be parsed.
var ErrInvalidDueDate = errors.New("invalid due_date")

// OptionalTime is a JSON time field that distinguishes absent from null.
// Set reports whether the field was present; Value is nil for null or "".
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil

	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: must be a string or null", ErrInvalidDueDate)
	}
	t, err := ParseDueDate(s)
	if err != nil {
		return err
	}
	o.Value = t
	return nil
}

// ParseDueDate parses an ISO 8601 date-time. An empty string yields nil.
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, fmt.Errorf("%w: %q is not an ISO 8601 date-time", ErrInvalidDueDate, s)
}
