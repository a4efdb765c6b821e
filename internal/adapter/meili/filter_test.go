package meili

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeFilterValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "serp-123", "serp-123"},
		{"quotes", `serp-"x"`, `serp-\"x\"`},
		{"backslash", `a\b`, `a\\b`},
		{"backslash then quote", `a\"b`, `a\\\"b`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, escapeFilterValue(tt.input))
		})
	}
}

func TestTermsFilter(t *testing.T) {
	assert.Equal(t, "", termsFilter("serp_id", nil))
	assert.Equal(t, `serp_id IN ["a"]`, termsFilter("serp_id", []string{"a"}))
	assert.Equal(t, `serp_id IN ["a", "b"]`, termsFilter("serp_id", []string{"a", "b"}))
	assert.Equal(t, `serp_id IN ["a\"b"]`, termsFilter("serp_id", []string{`a"b`}))
}

func TestExistsFilter(t *testing.T) {
	assert.Equal(t, "snippet_ids EXISTS", existsFilter("snippet_ids"))
}
