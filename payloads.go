package talent

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// LoginPayload is the body of POST /auth/login
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// Validate will validate the payload
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Role, validation.In(RoleTalent, RoleRecruiter, RoleAdmin)),
	)
}

// RegistrationPayload is the registration form. ConfirmPassword stays local.
type RegistrationPayload struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	Country         string `json:"country,omitempty"`
	Role            Role   `json:"role"`
	Company         string `json:"company,omitempty"`
	Position        string `json:"position,omitempty"`
}

// ValidateRole is the only check the session controller performs before
// registering: the role must be present and known.
func (r RegistrationPayload) ValidateRole() error {
	role := Role(strings.TrimSpace(string(r.Role)))
	if role == "" {
		return ErrRoleRequired.Clone()
	}
	if !role.IsValid() {
		return ErrInvalidRole.Clone().WithMetadata(map[string]any{
			"role": string(r.Role),
		})
	}
	return nil
}

// Validate runs the full form rules. Recruiters also need company and position.
func (r RegistrationPayload) Validate() error {
	recruiter := r.Role == RoleRecruiter
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(validateStringEquals(r.Password)),
		),
		validation.Field(&r.Country, validation.Required),
		validation.Field(&r.Role, validation.Required, validation.In(RoleTalent, RoleRecruiter, RoleAdmin)),
		validation.Field(&r.Company, validation.By(requiredIf(recruiter))),
		validation.Field(&r.Position, validation.By(requiredIf(recruiter))),
	)
}

// Redacted returns a copy safe to log
func (r RegistrationPayload) Redacted() RegistrationPayload {
	r.Password = ""
	r.ConfirmPassword = ""
	return r
}

func validateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("Passwords do not match")
		}
		return nil
	}
}

func requiredIf(cond bool) validation.RuleFunc {
	return func(value any) error {
		if !cond {
			return nil
		}
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return errors.New("cannot be blank")
		}
		return nil
	}
}
