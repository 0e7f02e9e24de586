package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  task.read ", "task.write  "},
			expected: []string{"task.read", "task.write"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"task.read", "task.write", "task.read"},
			expected: []string{"task.read", "task.write"},
		},
		{
			name:     "removes empty entries",
			input:    []string{"task.read", "", "  ", "task.write"},
			expected: []string{"task.read", "task.write"},
		},
		{
			name:     "preserves case",
			input:    []string{"Task.Read", "task.read"},
			expected: []string{"Task.Read", "task.read"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
