// Package auth extracts the upstream API key from the caller's bearer token.
// The relay never stores the HIBP key itself: each caller carries it inside
// a JWT signed with the shared module secret.
package auth

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/breachwatch/hibp-relay/internal/models"
)

type KeyProvider struct {
	secret []byte
}

func NewKeyProvider(secret string) *KeyProvider {
	return &KeyProvider{secret: []byte(secret)}
}

// KeyFromRequest decodes the Authorization header and returns the "key"
// claim. Any failure is an access-denied condition surfaced before a single
// upstream call is made.
func (p *KeyProvider) KeyFromRequest(r *http.Request) (string, *models.APIError) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", denied("Authorization header is missing")
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", denied("Wrong authorization type")
	}

	if len(p.secret) == 0 {
		return "", denied("Secret key is missing")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return p.secret, nil
	})
	if err != nil {
		return "", denied("Failed to decode JWT with provided key")
	}

	key, ok := claims["key"].(string)
	if !ok || key == "" {
		return "", denied("Wrong JWT payload structure")
	}

	return key, nil
}

func denied(reason string) *models.APIError {
	return models.NewAPIError(
		models.CodeAccessDenied,
		"Authorization failed: "+reason,
	)
}
