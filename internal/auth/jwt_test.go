package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParseRoundTrip(t *testing.T) {
	tok, err := Issue("u1", "asha", RoleMember, "rollcall", "test-key", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Value)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)

	claims, err := Parse(tok.Value, "test-key", "rollcall")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "asha", claims.Username)
	assert.Equal(t, RoleMember, claims.Role)
	assert.Equal(t, "u1", claims.Subject)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	tok, err := Issue("u1", "asha", RoleMember, "rollcall", "test-key", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(tok.Value, "test-key", "rollcall")
	assert.Error(t, err)
}

func TestParseRejectsWrongKey(t *testing.T) {
	tok, err := Issue("u1", "asha", RoleMember, "rollcall", "test-key", time.Hour)
	require.NoError(t, err)

	_, err = Parse(tok.Value, "other-key", "rollcall")
	assert.Error(t, err)
}

func TestParseRejectsIssuerMismatch(t *testing.T) {
	tok, err := Issue("u1", "asha", RoleAdmin, "someone-else", "test-key", time.Hour)
	require.NoError(t, err)

	_, err = Parse(tok.Value, "test-key", "rollcall")
	assert.Error(t, err)

	// Empty expected issuer skips the check.
	claims, err := Parse(tok.Value, "test-key", "")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("not.a.token", "test-key", "rollcall")
	assert.Error(t, err)
}
