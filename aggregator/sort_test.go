package aggregator_test

import (
	"testing"

	"tootfeed/aggregator"
	"tootfeed/models"

	"github.com/stretchr/testify/assert"
)

func TestSort(t *testing.T) {
	tests := []struct {
		name     string
		input    []models.Entry
		expected []string
	}{
		{
			name: "newest first",
			input: []models.Entry{
				entry("a", "1", "2024-01-01T00:00:00Z"),
				entry("a", "3", "2024-01-03T00:00:00Z"),
				entry("a", "2", "2024-01-02T00:00:00Z"),
			},
			expected: []string{"a:3", "a:2", "a:1"},
		},
		{
			name: "fractional seconds and offsets compare chronologically",
			input: []models.Entry{
				entry("a", "utc", "2024-01-01T10:00:00.000Z"),
				entry("a", "offset", "2024-01-01T11:30:00+02:00"),
				entry("a", "later", "2024-01-01T10:00:00.500Z"),
			},
			expected: []string{"a:later", "a:utc", "a:offset"},
		},
		{
			name: "unparsable timestamps sort last",
			input: []models.Entry{
				entry("a", "bad", "yesterday"),
				entry("a", "good", "2020-01-01T00:00:00Z"),
			},
			expected: []string{"a:good", "a:bad"},
		},
		{
			name: "ties broken by username then content",
			input: []models.Entry{
				entry("bob", "b", "2024-01-01T00:00:00Z"),
				entry("alice", "z", "2024-01-01T00:00:00Z"),
				entry("alice", "a", "2024-01-01T00:00:00Z"),
			},
			expected: []string{"alice:a", "alice:z", "bob:b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aggregator.Sort(tt.input)
			assert.Equal(t, tt.expected, contents(tt.input))
		})
	}
}

func TestFilter(t *testing.T) {
	input := []models.Entry{
		entry("a", "", "2024-01-03T00:00:00Z"),
		entry("a", "kept", "2024-01-02T00:00:00Z"),
		entry("a", " ", "2024-01-01T00:00:00Z"),
	}

	assert.Equal(t, []string{"a:kept", "a: "}, contents(aggregator.Filter(input)))
}

func TestMerge(t *testing.T) {
	merged := aggregator.Merge([][]models.Entry{
		{entry("a", "1", "")},
		nil,
		{entry("b", "2", ""), entry("b", "3", "")},
	})

	assert.Equal(t, []string{"a:1", "b:2", "b:3"}, contents(merged))
}
