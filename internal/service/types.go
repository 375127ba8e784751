// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Priority is the urgency of a task as reported by the server.
// Unknown values are kept as received.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the known priorities in display order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Filter defaults and status values.
const (
	StatusAll       = "all"
	StatusPending   = "pending"
	StatusCompleted = "completed"

	PriorityAll = "all"
)

// Statuses lists the status filter values in display order.
var Statuses = []string{StatusAll, StatusPending, StatusCompleted}

// Task represents a single task as owned by the server.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Completed   bool       `json:"completed"`
	CreatedAt   Timestamp  `json:"created_at"`
	Deadline    *Timestamp `json:"deadline,omitempty"`
}

// NewTask is the body of a create request.
// Deadline is nil when the form field was left empty, which encodes as JSON null.
type NewTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Deadline    *string  `json:"deadline"`
}

// Filter is the list query built from the status, priority and search controls.
// Zero values mean the default ("all" / empty).
type Filter struct {
	Status   string
	Priority string
	Search   string
}

// Values returns the query parameters for the filter.
// A parameter is present only when its value differs from the default.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.Status != "" && f.Status != StatusAll {
		v.Set("status", f.Status)
	}
	if f.Priority != "" && f.Priority != PriorityAll {
		v.Set("priority", f.Priority)
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	return v
}

// Timestamp is a server timestamp.
// Raw holds the value as received; Time is zero when Raw could not be parsed.
// Wall is set for zone-less values: Time then holds the wall clock as entered,
// read in the local zone, and must not be converted for display.
type Timestamp struct {
	Time time.Time
	Raw  string
	Wall bool
}

// timestampLayouts are tried in order when decoding.
// The zone-less forms come from HTML date inputs, http.TimeFormat from Flask's jsonify.
var timestampLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02", false},
	{http.TimeFormat, true},
	{time.RFC1123Z, true},
}

// ParseTimestamp parses s using the accepted layouts.
// It never fails: an unparseable value is kept in Raw with a zero Time.
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	for _, l := range timestampLayouts {
		if l.zoned {
			if t, err := time.Parse(l.layout, s); err == nil {
				return Timestamp{Time: t, Raw: s}
			}
			continue
		}
		if t, err := time.ParseInLocation(l.layout, s, time.Local); err == nil {
			return Timestamp{Time: t, Raw: s, Wall: true}
		}
	}
	return Timestamp{Raw: s}
}

// IsZero reports whether the timestamp carries no value at all.
func (t Timestamp) IsZero() bool {
	return t.Raw == "" && t.Time.IsZero()
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseTimestamp(s)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	if t.Raw != "" {
		return json.Marshal(t.Raw)
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}
