package identity

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pxbackup-system/cluster-orchestration/internal/config"
)

func TestStaticVerifier(t *testing.T) {
	v, err := newStaticVerifier(config.StaticConfig{Secret: "test-secret"})
	require.NoError(t, err)

	token, err := SignStaticToken("test-secret", "user-42")
	require.NoError(t, err)

	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
}

func TestStaticVerifierRejectsWrongSecret(t *testing.T) {
	v, err := newStaticVerifier(config.StaticConfig{Secret: "test-secret"})
	require.NoError(t, err)

	token, err := SignStaticToken("other-secret", "user-42")
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), token)
	require.Error(t, err)
}

func TestStaticVerifierRejectsUnsignedToken(t *testing.T) {
	v, err := newStaticVerifier(config.StaticConfig{Secret: "test-secret"})
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "user-42"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), raw)
	require.Error(t, err)
}

func TestStaticVerifierRequiresSubject(t *testing.T) {
	v, err := newStaticVerifier(config.StaticConfig{Secret: "test-secret"})
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "a@b.c"})
	raw, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), raw)
	require.Error(t, err)
}

func TestNewRequiresKnownProvider(t *testing.T) {
	_, err := New(context.Background(), config.AuthConfig{Provider: "ldap"})
	require.Error(t, err)

	_, err = New(context.Background(), config.AuthConfig{
		Provider: "static",
		Static:   config.StaticConfig{Secret: "test-secret"},
	})
	require.NoError(t, err)
}

func TestNewStaticRequiresSecret(t *testing.T) {
	_, err := New(context.Background(), config.AuthConfig{Provider: "static"})
	require.Error(t, err)
}
