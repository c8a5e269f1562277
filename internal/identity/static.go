package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pxbackup-system/cluster-orchestration/internal/config"
)

type staticClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// staticVerifier validates HMAC-signed tokens against a shared secret. It
// exists for development and test deployments where no OIDC provider is
// reachable.
type staticVerifier struct {
	secret []byte
}

func newStaticVerifier(cfg config.StaticConfig) (*staticVerifier, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("static provider requires auth.static.secret")
	}
	return &staticVerifier{secret: []byte(cfg.Secret)}, nil
}

func (v *staticVerifier) Verify(_ context.Context, rawToken string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(rawToken, &staticClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*staticClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	subject := claims.UserID
	if subject == "" {
		subject = claims.Subject
	}
	if subject == "" {
		return nil, fmt.Errorf("token does not contain a subject")
	}

	return &Claims{Subject: subject, Email: claims.Email}, nil
}

// SignStaticToken mints a token the static verifier accepts. Used by tests
// and local tooling.
func SignStaticToken(secret, userID string) (string, error) {
	claims := staticClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "cluster-orchestration",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
