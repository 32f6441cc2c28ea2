// Package identity verifies bearer tokens issued by the external identity
// provider. FilmPass never issues these tokens; it only checks them.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ManuelReschke/FilmPass/internal/pkg/apperror"
	"github.com/ManuelReschke/FilmPass/internal/pkg/config"
)

// Identity is the verified caller
type Identity struct {
	UserID string
	Email  string
}

// Verifier resolves a bearer token to an Identity or fails with
// apperror.ErrUnauthenticated.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Claims mirrors the access tokens minted by the identity provider
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// JWTVerifier checks HS256 access tokens signed with the provider's JWT secret
type JWTVerifier struct {
	secret   []byte
	audience string
}

func NewJWTVerifier(cfg config.AuthConfig) *JWTVerifier {
	return &JWTVerifier{
		secret:   []byte(cfg.JWTSecret),
		audience: cfg.Audience,
	}
}

func (v *JWTVerifier) Verify(_ context.Context, tokenStr string) (*Identity, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("empty token: %w", apperror.ErrUnauthenticated)
	}
	if len(v.secret) == 0 {
		return nil, errors.New("identity verifier has no secret configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperror.ErrUnauthenticated)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("token without subject: %w", apperror.ErrUnauthenticated)
	}

	return &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
	}, nil
}
