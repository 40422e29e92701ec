package identity

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/dmitrijs2005/insightpulse/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACVerifier(t *testing.T) {
	secret := []byte("dev-secret")
	v := NewHMACVerifier(secret, "insightpulse-dev", "dashboard")
	ctx := context.Background()

	tok, err := MintHMAC(secret, "insightpulse-dev", "dashboard", "newbie@gmail.com", "Newbie", time.Minute)
	require.NoError(t, err)
	id, err := v.Verify(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, Identity{Email: "newbie@gmail.com", Name: "Newbie"}, id)

	tok, err = MintHMAC(secret, "insightpulse-dev", "dashboard", "jane.doe@gmail.com", "", time.Minute)
	require.NoError(t, err)
	id, err = v.Verify(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "jane.doe", id.Name, "name falls back to the local part")
}

func TestHMACVerifier_Rejects(t *testing.T) {
	secret := []byte("dev-secret")
	v := NewHMACVerifier(secret, "insightpulse-dev", "")
	ctx := context.Background()

	wrongKey, _ := MintHMAC([]byte("other"), "insightpulse-dev", "", "a@example.com", "", time.Minute)
	expired, _ := MintHMAC(secret, "insightpulse-dev", "", "a@example.com", "", -time.Minute)
	wrongIssuer, _ := MintHMAC(secret, "evil", "", "a@example.com", "", time.Minute)
	noEmail, _ := MintHMAC(secret, "insightpulse-dev", "", "", "", time.Minute)
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"email": "a@example.com"}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{
		"wrong key":    wrongKey,
		"expired":      expired,
		"wrong issuer": wrongIssuer,
		"no email":     noEmail,
		"unsigned":     unsigned,
		"garbage":      "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(ctx, tok)
			require.ErrorIs(t, err, common.ErrMalformedAssertion)
		})
	}
}

func TestOIDCVerifier_StaticKeys(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	const issuer = "https://accounts.example.com"
	v := NewOIDCVerifierWithKeys(issuer, "dashboard-client", &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{key.Public()}})

	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	now := time.Now()

	good := sign(jwt.MapClaims{
		"iss": issuer, "aud": "dashboard-client", "sub": "123",
		"iat": now.Unix(), "exp": now.Add(time.Hour).Unix(),
		"email": "analyst.jane@example.com", "name": "Jane",
	})
	id, err := v.Verify(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, Identity{Email: "analyst.jane@example.com", Name: "Jane"}, id)

	wrongAudience := sign(jwt.MapClaims{
		"iss": issuer, "aud": "someone-else", "sub": "123",
		"iat": now.Unix(), "exp": now.Add(time.Hour).Unix(), "email": "x@example.com",
	})
	_, err = v.Verify(context.Background(), wrongAudience)
	require.ErrorIs(t, err, common.ErrMalformedAssertion)
}
