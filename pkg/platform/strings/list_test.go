package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "only separators", input: " , ,", expected: nil},
		{name: "single broker", input: "kafka:9092", expected: []string{"kafka:9092"}},
		{name: "trims whitespace", input: " a:9092 ,b:9092", expected: []string{"a:9092", "b:9092"}},
		{name: "drops repeats in order", input: "b,a,b,c,a", expected: []string{"b", "a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input, ","))
		})
	}
}
