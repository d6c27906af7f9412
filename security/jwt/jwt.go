// Package jwt signs and validates the bearer tokens used by the HTTP layer.
package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtstd "github.com/golang-jwt/jwt/v5"
	nanoid "github.com/matoous/go-nanoid/v2"
)

// TokenError represents a token validation failure.
type TokenError string

func (e TokenError) Error() string {
	return string(e)
}

const (
	ErrInvalidToken = TokenError("invalid token")
	ErrTokenExpired = TokenError("token has expired")
)

// Claims is the decoded claim set of a validated token. After Validate it
// always contains "user_id" (copied from "sub") and "roles" as []string.
type Claims map[string]any

// UserID returns the user_id claim.
func (c Claims) UserID() string {
	id, _ := c["user_id"].(string)
	return id
}

// Roles returns the normalized roles claim.
func (c Claims) Roles() []string {
	roles, _ := c["roles"].([]string)
	return roles
}

// TokenManager issues and validates HS256 bearer tokens.
//
// An empty secret puts the manager in development mode: tokens are decoded
// without signature verification and only the expiry claim is checked. This
// mirrors locally issued identity providers and must never be used in
// production.
type TokenManager struct {
	secret   string
	issuer   string
	audience string
	method   jwtstd.SigningMethod
	expire   time.Duration
}

// NewTokenManager creates a token manager. algorithm defaults to HS256 when
// empty; unknown algorithm names also fall back to HS256.
func NewTokenManager(secret, algorithm, issuer, audience string, expire time.Duration) *TokenManager {
	method := jwtstd.GetSigningMethod(algorithm)
	if method == nil {
		method = jwtstd.SigningMethodHS256
	}
	return &TokenManager{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		method:   method,
		expire:   expire,
	}
}

// Sign issues a token for subject carrying roles. The jti claim gets a fresh
// nanoid so individual tokens stay distinguishable in logs.
func (tm *TokenManager) Sign(subject string, roles []string) (string, time.Time, error) {
	if tm.secret == "" {
		return "", time.Time{}, fmt.Errorf("cannot sign token without a secret")
	}

	jti, err := nanoid.New()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate jti: %w", err)
	}

	if roles == nil {
		roles = []string{}
	}
	now := time.Now().UTC()
	expiresAt := now.Add(tm.expire)

	claims := jwtstd.MapClaims{
		"jti":   jti,
		"iss":   tm.issuer,
		"aud":   tm.audience,
		"sub":   subject,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
		"roles": roles,
	}

	signed, err := jwtstd.NewWithClaims(tm.method, claims).SignedString([]byte(tm.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate checks the token and returns its normalized claims.
func (tm *TokenManager) Validate(tokenString string) (Claims, error) {
	if tm.secret == "" {
		return tm.validateUnverified(tokenString)
	}

	opts := []jwtstd.ParserOption{
		jwtstd.WithValidMethods([]string{tm.method.Alg()}),
	}
	if tm.issuer != "" {
		opts = append(opts, jwtstd.WithIssuer(tm.issuer))
	}
	if tm.audience != "" {
		opts = append(opts, jwtstd.WithAudience(tm.audience))
	}

	token, err := jwtstd.Parse(tokenString, func(t *jwtstd.Token) (any, error) {
		return []byte(tm.secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwtstd.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwtstd.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return normalizeClaims(mapClaims), nil
}

// validateUnverified decodes without signature verification and enforces
// expiry by hand.
func (tm *TokenManager) validateUnverified(tokenString string) (Claims, error) {
	token, _, err := jwtstd.NewParser().ParseUnverified(tokenString, jwtstd.MapClaims{})
	if err != nil {
		return nil, ErrInvalidToken
	}
	mapClaims, ok := token.Claims.(jwtstd.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if exp, ok := mapClaims["exp"].(float64); ok {
		if time.Now().UTC().Unix() >= int64(exp) {
			return nil, ErrTokenExpired
		}
	}
	return normalizeClaims(mapClaims), nil
}

// normalizeClaims copies sub into user_id and coerces roles to []string.
// A comma separated roles string is split; anything else becomes empty.
func normalizeClaims(mapClaims jwtstd.MapClaims) Claims {
	claims := Claims{}
	for k, v := range mapClaims {
		claims[k] = v
	}

	if sub, ok := claims["sub"].(string); ok {
		claims["user_id"] = sub
	}

	switch roles := claims["roles"].(type) {
	case []string:
		claims["roles"] = roles
	case []any:
		out := make([]string, 0, len(roles))
		for _, r := range roles {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		claims["roles"] = out
	case string:
		parts := []string{}
		for _, p := range strings.Split(roles, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		claims["roles"] = parts
	default:
		claims["roles"] = []string{}
	}

	return claims
}
