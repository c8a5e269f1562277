package identity

import (
	"context"
	"fmt"

	"github.com/pxbackup-system/cluster-orchestration/internal/config"
)

// Claims is the verified subset of token claims the orchestrator cares
// about. Subject is never empty for a successfully verified token.
type Claims struct {
	Subject string
	Email   string
}

// Verifier validates a raw bearer token against one identity provider.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}

// ProviderKind is the closed set of supported identity providers. The
// provider is chosen once at startup from configuration, never per call.
type ProviderKind string

const (
	ProviderKeycloak ProviderKind = "keycloak"
	ProviderOkta     ProviderKind = "okta"
	ProviderStatic   ProviderKind = "static"
)

// New constructs the configured verifier. Keycloak and Okta perform OIDC
// issuer discovery up front, so a misconfigured provider fails at startup
// rather than on the first request.
func New(ctx context.Context, cfg config.AuthConfig) (Verifier, error) {
	switch ProviderKind(cfg.Provider) {
	case ProviderKeycloak:
		return newKeycloakVerifier(ctx, cfg.Keycloak)
	case ProviderOkta:
		return newOktaVerifier(ctx, cfg.Okta)
	case ProviderStatic:
		return newStaticVerifier(cfg.Static)
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.Provider)
	}
}
