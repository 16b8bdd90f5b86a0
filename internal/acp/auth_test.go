package acp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDemoTokenIssuerRoundTrip(t *testing.T) {
	t.Parallel()

	issuer := NewDemoTokenIssuer([]byte("super-secret"), time.Hour)
	token, err := issuer.Issue("operator-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := issuer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "operator-1", subject)
}

func TestDemoTokenIssuerDefaultsTTL(t *testing.T) {
	t.Parallel()

	issuer := NewDemoTokenIssuer([]byte("secret"), 0)
	require.Equal(t, time.Hour, issuer.ttl)
}

func TestDemoTokenIssuerRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewDemoTokenIssuer([]byte("secret-a"), time.Hour)
	token, err := issuer.Issue("operator-1")
	require.NoError(t, err)

	other := NewDemoTokenIssuer([]byte("secret-b"), time.Hour)
	_, err = other.Verify(token)
	require.Error(t, err)
}

func TestDemoTokenIssuerRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	issuer := NewDemoTokenIssuer([]byte("secret"), -time.Hour)
	issuer.ttl = time.Nanosecond
	token, err := issuer.Issue("operator-1")
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)

	_, err = issuer.Verify(token)
	require.Error(t, err)
}

func TestDemoTokenIssuerRejectsGarbage(t *testing.T) {
	t.Parallel()

	issuer := NewDemoTokenIssuer([]byte("secret"), time.Hour)
	_, err := issuer.Verify("not-a-jwt")
	require.Error(t, err)
}
