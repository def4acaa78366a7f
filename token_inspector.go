package talent

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInspector decodes bearer tokens without verifying their signature.
// Validation belongs to the API; the inspector only spares calls that are
// bound to fail.
type TokenInspector struct {
	parser *jwt.Parser
}

var defaultInspector = NewTokenInspector()

// NewTokenInspector returns an inspector that reads the registered claims.
func NewTokenInspector() *TokenInspector {
	return &TokenInspector{
		parser: jwt.NewParser(),
	}
}

// Inspect decodes the token payload.
func (i *TokenInspector) Inspect(token string) (*TokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenMalformed.Clone().WithMetadata(map[string]any{
			"reason": "empty token",
		})
	}

	claims := &TokenClaims{}
	if _, _, err := i.parser.ParseUnverified(token, claims); err != nil {
		clone := ErrTokenMalformed.Clone()
		clone.Source = err
		return nil, clone.WithMetadata(map[string]any{
			"cause": err.Error(),
		})
	}

	return claims, nil
}

// DecodeExpiry returns the expiry claim of token. A token without an `exp`
// claim does not have the expected structure and is reported as malformed.
func (i *TokenInspector) DecodeExpiry(token string) (time.Time, error) {
	claims, err := i.Inspect(token)
	if err != nil {
		return time.Time{}, err
	}

	exp := claims.Expires()
	if exp.IsZero() {
		return time.Time{}, ErrTokenMalformed.Clone().WithMetadata(map[string]any{
			"reason": "missing exp claim",
		})
	}

	return exp, nil
}

// CheckExpiry returns ErrTokenMalformed when token cannot be decoded and
// ErrTokenExpired when its expiry is not after now.
func (i *TokenInspector) CheckExpiry(token string, now time.Time) error {
	exp, err := i.DecodeExpiry(token)
	if err != nil {
		return err
	}
	if !now.Before(exp) {
		return ErrTokenExpired.Clone().WithMetadata(map[string]any{
			"expired_at": exp.UTC().Format(time.RFC3339),
		})
	}
	return nil
}

// IsExpired compares the decoded expiry against now. Decode failures count
// as expired.
func (i *TokenInspector) IsExpired(token string, now time.Time) bool {
	return i.CheckExpiry(token, now) != nil
}

// DecodeExpiry decodes the expiry of token with the default inspector.
func DecodeExpiry(token string) (time.Time, error) {
	return defaultInspector.DecodeExpiry(token)
}

// IsExpired checks token against now with the default inspector.
func IsExpired(token string, now time.Time) bool {
	return defaultInspector.IsExpired(token, now)
}
