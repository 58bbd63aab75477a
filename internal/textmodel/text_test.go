package textmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLen(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"", 0},
		{"hello", 5},
		{"café", 4},
		{"😀", 2},
		{"a😀b", 4},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Len(tt.input))
		})
	}
}

func TestSlice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		start, end int
		expected   string
	}{
		{"ascii", "hello world", 6, 11, "world"},
		{"clamped end", "hello", 2, 50, "llo"},
		{"negative start", "hello", -4, 2, "he"},
		{"empty range", "hello", 3, 3, ""},
		{"reversed", "hello", 4, 1, ""},
		{"after surrogate pair", "a😀bc", 3, 5, "bc"},
		{"covering surrogate pair", "a😀bc", 1, 3, "😀"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slice(tt.input, tt.start, tt.end))
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-1, 10))
	assert.Equal(t, 10, Clamp(12, 10))
	assert.Equal(t, 4, Clamp(4, 10))
}
