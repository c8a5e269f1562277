package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/pxbackup-system/cluster-orchestration/internal/config"
)

type keycloakVerifier struct {
	issuer   string
	verifier *oidc.IDTokenVerifier
}

func newKeycloakVerifier(ctx context.Context, cfg config.KeycloakConfig) (*keycloakVerifier, error) {
	issuer := fmt.Sprintf("%s/realms/%s", strings.TrimRight(cfg.URL, "/"), cfg.Realm)

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("keycloak discovery failed for %q: %w", issuer, err)
	}

	return &keycloakVerifier{
		issuer:   issuer,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (v *keycloakVerifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	var extra struct {
		Email string `json:"email"`
	}
	_ = token.Claims(&extra)

	if token.Subject == "" {
		return nil, fmt.Errorf("token does not contain a subject")
	}

	return &Claims{Subject: token.Subject, Email: extra.Email}, nil
}
