package talent

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the payload the API embeds in bearer tokens. The user block
// is nested (`{"user":{"id","role"}}`); flat `uid`/`role` claims are also read.
type TokenClaims struct {
	jwt.RegisteredClaims
	User     *TokenUser `json:"user,omitempty"`
	UID      string     `json:"uid,omitempty"`
	UserRole string     `json:"role,omitempty"`
}

// TokenUser is the nested user claim
type TokenUser struct {
	ID   string `json:"id,omitempty"`
	Role string `json:"role,omitempty"`
}

// UserID returns the user ID
func (c *TokenClaims) UserID() string {
	if c.User != nil && c.User.ID != "" {
		return c.User.ID
	}
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Role returns the role carried by the token, if any
func (c *TokenClaims) Role() Role {
	if c.User != nil && c.User.Role != "" {
		return Role(c.User.Role)
	}
	return Role(c.UserRole)
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
