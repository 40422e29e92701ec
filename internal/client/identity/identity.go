// Package identity verifies third-party identity assertions (signed ID
// tokens) used by the "sign in with Google" flow. Tokens are never trusted
// without checking their signature.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/insightpulse/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is what a verified assertion says about its holder.
type Identity struct {
	Email string
	Name  string
}

type Verifier interface {
	Verify(ctx context.Context, assertion string) (Identity, error)
}

var errNoEmail = errors.New("assertion has no email claim")

func finish(email, name string) (Identity, error) {
	if email == "" {
		return Identity{}, fmt.Errorf("%w: %w", common.ErrMalformedAssertion, errNoEmail)
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	return Identity{Email: email, Name: name}, nil
}

// assertionClaims mirrors the fields of a Google ID token we read.
type assertionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// HMACVerifier accepts HS256 tokens signed with a shared secret. It stands in
// for a real identity provider during development.
type HMACVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

func NewHMACVerifier(secret []byte, issuer, audience string) *HMACVerifier {
	return &HMACVerifier{secret: secret, issuer: issuer, audience: audience}
}

func (v *HMACVerifier) Verify(ctx context.Context, assertion string) (Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &assertionClaims{}
	_, err := jwt.ParseWithClaims(assertion, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", common.ErrMalformedAssertion, err)
	}
	return finish(claims.Email, claims.Name)
}

// MintHMAC issues a development assertion that HMACVerifier accepts.
func MintHMAC(secret []byte, issuer, audience, email, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := assertionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
		Name:  name,
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
