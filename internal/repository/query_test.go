package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "login", expected: "%login%"},
		{name: "percent", input: "100%", expected: `%100\%%`},
		{name: "underscore", input: "p_95", expected: `%p\_95%`},
		{name: "backslash", input: `C:\runs`, expected: `%C:\\runs%`},
		{name: "only wildcards", input: "%_", expected: `%\%\_%`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, containsPattern(tt.input))
		})
	}
}
