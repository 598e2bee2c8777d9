package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rSecret", hash)

	assert.True(t, VerifyPassword("Sup3rSecret", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.NoError(t, ValidatePasswordStrength("Sup3rSecret"))

	assert.Error(t, ValidatePasswordStrength("Sh0rt"))
	assert.Error(t, ValidatePasswordStrength("alllowercase1"))
	assert.Error(t, ValidatePasswordStrength("ALLUPPERCASE1"))
	assert.Error(t, ValidatePasswordStrength("NoDigitsHere"))
	assert.Error(t, ValidatePasswordStrength(strings.Repeat("Aa1", 50)))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("ada@engines.example"))
	assert.True(t, IsValidEmail("  ada@engines.example  "), "surrounding whitespace is trimmed")

	assert.False(t, IsValidEmail(""))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail("missing@tld"))
}
