package helpers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// MetadataRole returns the role the user picked on the account page, if any.
func (c *CustomClaims) MetadataRole() string {
	if role, ok := c.UserMetadata["role"].(string); ok {
		return role
	}
	return ""
}

type TokenValidator interface {
	ValidateToken(tokenStr string) (*CustomClaims, error)
}

// JWTValidator verifies Supabase access tokens. Asymmetric tokens are checked
// against the project's JWKS, HS256 tokens against the shared JWT secret.
type JWTValidator struct {
	jwks   *keyfunc.JWKS
	secret []byte
}

func NewJWTValidator(ctx context.Context, jwksURL, secret string, logger *slog.Logger) (*JWTValidator, error) {
	v := &JWTValidator{}
	if secret != "" {
		v.secret = []byte(secret)
	}

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn("JWKS refresh failed", "error", err)
		},
	})
	if err != nil {
		if v.secret == nil {
			return nil, fmt.Errorf("failed to load JWKS from %s: %w", jwksURL, err)
		}
		logger.Warn("JWKS unavailable, verifying HS256 tokens only", "url", jwksURL, "error", err)
		return v, nil
	}
	v.jwks = jwks
	return v, nil
}

// NewHS256Validator verifies tokens signed with the shared secret only.
func NewHS256Validator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

func (v *JWTValidator) keyfunc(token *jwt.Token) (interface{}, error) {
	if token.Method.Alg() == jwt.SigningMethodHS256.Alg() {
		if v.secret == nil {
			return nil, errors.New("HS256 token but no JWT secret configured")
		}
		return v.secret, nil
	}
	if v.jwks == nil {
		return nil, fmt.Errorf("no signing keys for %s tokens", token.Method.Alg())
	}
	return v.jwks.Keyfunc(token)
}

func (v *JWTValidator) ValidateToken(tokenStr string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, v.keyfunc,
		jwt.WithValidMethods([]string{"HS256", "RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func (v *JWTValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
