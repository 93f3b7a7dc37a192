package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCanonicalPassthrough(t *testing.T) {
	canonical := "6fa459ea-ee8a-3ca4-894e-db77e160355e"
	assert.Equal(t, canonical, Normalize(canonical))

	// Uppercase canonical input folds to lowercase but stays the same key.
	assert.Equal(t, canonical, Normalize("6FA459EA-EE8A-3CA4-894E-DB77E160355E"))
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"discord:123456789",
		"some-legacy-user",
		"",
		"6fa459ea-ee8a-3ca4-894e-db77e160355e",
		"not-quite-a-uuid-string-here",
	}
	for _, in := range inputs {
		once := Normalize(in)
		require.True(t, IsCanonical(once), "Normalize(%q) = %q not canonical", in, once)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	a := Normalize("user@example.com")
	b := Normalize("user@example.com")
	assert.Equal(t, a, b)

	c := Normalize("other@example.com")
	assert.NotEqual(t, a, c)
}
