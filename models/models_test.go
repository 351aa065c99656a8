package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"tootfeed/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Time
	}{
		{value: "2024-01-02T00:00:00Z", expected: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{value: "2024-01-02T00:00:00.123Z", expected: time.Date(2024, 1, 2, 0, 0, 0, 123000000, time.UTC)},
		{value: "2024-01-02T02:00:00+02:00", expected: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{value: "", expected: time.Time{}},
		{value: "Tue, 02 Jan 2024 00:00:00 GMT", expected: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, models.ParseTimestamp(tt.value))
		})
	}
}

func TestEntryUnmarshal(t *testing.T) {
	var entry models.Entry
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "1",
		"account": {"avatar": "a.png", "url": "https://a.example/@alice", "username": "alice", "id": "9"},
		"content": "<p>hi</p>",
		"created_at": "2024-01-02T00:00:00Z"
	}`), &entry))

	assert.Equal(t, models.Account{Avatar: "a.png", URL: "https://a.example/@alice", Username: "alice"}, entry.Account)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), entry.Published)
	assert.False(t, entry.Boost())
}

func TestBoost(t *testing.T) {
	assert.True(t, models.Entry{}.Boost())
	assert.False(t, models.Entry{Content: " "}.Boost())
}
