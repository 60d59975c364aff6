// Package auth mints and verifies the HS256 access tokens handed to
// signed-in storefront users.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/sweetdelights-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	signingMethod = jwt.SigningMethodHS256

	errMissingSecret = errors.New("jwt secret is required")
)

func checkSigningConfig(cfg config.JWTConfig) error {
	switch {
	case cfg.Secret == "":
		return errMissingSecret
	case cfg.Issuer == "":
		return errors.New("jwt issuer is required")
	case cfg.ExpirationMinutes <= 0:
		return errors.New("jwt expiration minutes must be positive")
	}
	return nil
}

// MintAccessToken signs payload as of now. A blank JTI gets a fresh uuid.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := checkSigningConfig(cfg); err != nil {
		return "", err
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("invalid role %q", payload.Role)
	}
	if payload.UserID == uuid.Nil {
		return "", errors.New("user id is required")
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	ttl := time.Duration(cfg.ExpirationMinutes) * time.Minute

	token := jwt.NewWithClaims(signingMethod, AccessTokenClaims{
		UserID:    payload.UserID,
		Email:     payload.Email,
		Role:      payload.Role,
		SessionID: payload.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	return parseClaims(cfg, tokenString, jwt.WithIssuer(cfg.Issuer))
}

// ParseAccessTokenAllowExpired still checks the signature and issuer but not
// exp or nbf, so refresh can read the jti of a stale token.
func ParseAccessTokenAllowExpired(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	return parseClaims(cfg, tokenString, jwt.WithoutClaimsValidation())
}

func parseClaims(cfg config.JWTConfig, tokenString string, opts ...jwt.ParserOption) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, errMissingSecret
	}
	parser := jwt.NewParser(append(opts, jwt.WithValidMethods([]string{signingMethod.Alg()}))...)

	claims := &AccessTokenClaims{}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, err
	}
	// WithoutClaimsValidation skips the issuer check too.
	if claims.Issuer != cfg.Issuer {
		return nil, fmt.Errorf("unexpected issuer %q", claims.Issuer)
	}
	return claims, nil
}
