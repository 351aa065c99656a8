package models

import (
	"encoding/json"
	"time"
)

// Subscription is one remote account whose statuses are aggregated
type Subscription struct {
	Account string `json:"account" yaml:"account" toml:"account"`
	URL     string `json:"url" yaml:"url" toml:"url"`
}

// Account describes the author of an entry
type Account struct {
	Avatar   string `json:"avatar"`
	URL      string `json:"url"`
	Username string `json:"username"`
}

// Entry is a single toot as returned by the remote statuses endpoint
type Entry struct {
	Account   Account `json:"account"`
	Content   string  `json:"content"`
	CreatedAt string  `json:"created_at"`

	// Parsed from CreatedAt on decode, zero if the timestamp is not RFC 3339
	Published time.Time `json:"-"`
}

// UnmarshalJSON decodes an entry and parses its timestamp
func (e *Entry) UnmarshalJSON(data []byte) error {
	type raw Entry
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*e = Entry(r)
	e.Published = ParseTimestamp(e.CreatedAt)
	return nil
}

// Boost reports whether the entry carries no original content
func (e Entry) Boost() bool {
	return e.Content == ""
}

// ParseTimestamp parses an RFC 3339 timestamp into UTC.
// Returns the zero time when the value cannot be parsed.
func ParseTimestamp(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
