package orgsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikeMatch(t *testing.T) {
	tests := []struct {
		value, pattern string
		match          bool
	}{
		{"Contoso", "cont%", true},
		{"Contoso", "%SO", true},
		{"Contoso", "C_ntoso", true},
		{"Contoso", "[ab]ontoso", false},
		{"Contoso", "[bc]ontoso", true},
		{"50% off", "50[%]%", true},
		{"a.b", "a.b", true},
		{"axb", "a.b", false},
		{"Contoso", "[z-a]%", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.match, likeMatch(tt.value, tt.pattern), "%q like %q", tt.value, tt.pattern)
	}
}

func TestLikeMatchCompilesOnce(t *testing.T) {
	likeMatch("Contoso", "cache%")
	first, ok := likePatterns.Get("cache%")
	assert.True(t, ok)
	assert.NotNil(t, first)

	likeMatch("Fabrikam", "cache%")
	second, _ := likePatterns.Get("cache%")
	assert.Same(t, first, second)

	likeMatch("Contoso", "[z-a]")
	invalid, ok := likePatterns.Get("[z-a]")
	assert.True(t, ok)
	assert.Nil(t, invalid)
}
