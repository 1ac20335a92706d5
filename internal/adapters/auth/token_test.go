package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	tokens := NewJWT("test-secret")

	signed, err := tokens.Issue("jo@y.com", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	email, err := tokens.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, "jo@y.com", email)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signed, err := NewJWT("secret-a").Issue("jo@y.com", time.Hour)
	require.NoError(t, err)

	_, err = NewJWT("secret-b").Verify(signed)
	require.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	tokens := NewJWT("test-secret")
	signed, err := tokens.Issue("jo@y.com", -time.Minute)
	require.NoError(t, err)

	_, err = tokens.Verify(signed)
	require.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := NewJWT("test-secret").Verify("not.a.jwt")
	require.Error(t, err)
}
