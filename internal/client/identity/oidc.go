package identity

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/dmitrijs2005/insightpulse/internal/common"
)

// OIDCVerifier checks ID tokens issued by an OpenID Connect provider such as
// https://accounts.google.com.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the provider's signing keys over the network.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// NewOIDCVerifierWithKeys verifies against a fixed key set.
func NewOIDCVerifierWithKeys(issuer, clientID string, keys oidc.KeySet) *OIDCVerifier {
	return &OIDCVerifier{verifier: oidc.NewVerifier(issuer, keys, &oidc.Config{ClientID: clientID})}
}

func (v *OIDCVerifier) Verify(ctx context.Context, assertion string) (Identity, error) {
	token, err := v.verifier.Verify(ctx, assertion)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", common.ErrMalformedAssertion, err)
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := token.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", common.ErrMalformedAssertion, err)
	}
	return finish(claims.Email, claims.Name)
}
