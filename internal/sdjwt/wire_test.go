package sdjwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompact_NoKeyBinding(t *testing.T) {
	s := "jwt~d1~d2~"
	c, err := ParseCompact(s)
	require.NoError(t, err)
	assert.Equal(t, "jwt", c.JWT)
	assert.Equal(t, []string{"d1", "d2"}, c.Disclosures)
	assert.False(t, c.HasKeyBinding())
	assert.Equal(t, s, c.String())
}

func TestParseCompact_WithKeyBinding(t *testing.T) {
	s := "jwt~d1~d2~kbjwt"
	c, err := ParseCompact(s)
	require.NoError(t, err)
	assert.Equal(t, "jwt", c.JWT)
	assert.Equal(t, []string{"d1", "d2"}, c.Disclosures)
	assert.True(t, c.HasKeyBinding())
	assert.Equal(t, "kbjwt", c.KeyBindingJWT)
	assert.Equal(t, s, c.String())
}

func TestParseCompact_NoDisclosures(t *testing.T) {
	s := "jwt~"
	c, err := ParseCompact(s)
	require.NoError(t, err)
	assert.Equal(t, "jwt", c.JWT)
	assert.Empty(t, c.Disclosures)
	assert.False(t, c.HasKeyBinding())
}

func TestParseCompact_NoTilde_MalformedSdJwt(t *testing.T) {
	_, err := ParseCompact("just-a-jwt-no-separator")
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, ErrMalformedSdJwt, kind)
}

func TestFormatCompact(t *testing.T) {
	got := FormatCompact("jwt", []string{"d1", "d2"}, "")
	assert.Equal(t, "jwt~d1~d2~", got)

	got = FormatCompact("jwt", nil, "kb")
	assert.Equal(t, "jwt~kb", got)
}
