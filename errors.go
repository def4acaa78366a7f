package talent

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeMissingToken      = "TOKEN_MISSING"
	TextCodeUnauthorized      = "UNAUTHORIZED"
	TextCodeRoleRequired      = "ROLE_REQUIRED"
	TextCodeInvalidRole       = "ROLE_INVALID"
	TextCodeProfileNotFound   = "PROFILE_NOT_FOUND"
	textCodeInvalidTransition = "INVALID_SESSION_STATE_TRANSITION"
)

// ErrTokenMalformed is returned when a bearer token cannot be decoded into
// its expected structure.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned when a decoded token carries an expiry in the past.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrMissingToken is returned when an auth response carries no token field.
var ErrMissingToken = goerrors.New("No token received from server", goerrors.CategoryAuth).
	WithTextCode(TextCodeMissingToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnauthorized marks a credential rejected by the API.
var ErrUnauthorized = goerrors.New("credential rejected", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(goerrors.CodeUnauthorized)

// ErrRoleRequired is the local validation error for registrations without a role.
var ErrRoleRequired = goerrors.New("Registration failed: Role is required", goerrors.CategoryValidation).
	WithTextCode(TextCodeRoleRequired).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidRole is returned for role values outside talent, recruiter and admin.
var ErrInvalidRole = goerrors.New("Registration failed: Role is invalid", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidRole).
	WithCode(goerrors.CodeBadRequest)

// ErrProfileNotFound describes the "profile not yet created" state.
var ErrProfileNotFound = goerrors.New("profile not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeProfileNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInvalidTransition is returned when a requested session state change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid session state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, TextCodeTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for tokens that could not be decoded
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, TextCodeTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed")
}

// IsValidationError reports locally detected input errors, the ones that
// never reach the network.
func IsValidationError(err error) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == goerrors.CategoryValidation
	}
	return false
}

// IsUnauthorizedError reports API responses that rejected the credential.
func IsUnauthorizedError(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, TextCodeUnauthorized) {
		return true
	}
	return StatusCode(err) == 401
}

// IsNotFoundError reports 404 responses and not-found sentinels.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, TextCodeProfileNotFound) {
		return true
	}
	return StatusCode(err) == 404
}

type statusCoder interface {
	StatusCode() int
}

type serverMessager interface {
	ServerMessage() string
}

// StatusCode extracts the HTTP status carried by an API error, 0 otherwise.
func StatusCode(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

// ErrorMessage resolves the user facing message for err: the server message
// when the API sent one, the message of a local validation or credential
// error, or fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var sm serverMessager
	if errors.As(err, &sm) {
		if msg := strings.TrimSpace(sm.ServerMessage()); msg != "" {
			return msg
		}
		return fallback
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && isUserFacing(richErr) {
		if richErr.Message != "" {
			return richErr.Message
		}
	}

	return fallback
}

// isUserFacing limits local messages shown to users to validation and
// credential errors. Transport and internal failures use the fallback.
func isUserFacing(e *goerrors.Error) bool {
	return e.Category == goerrors.CategoryValidation || e.Category == goerrors.CategoryAuth
}

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}
