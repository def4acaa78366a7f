package talent

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// User is the identity record returned by GET /auth/me
type User struct {
	ID        string     `json:"id,omitempty"`
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	Email     string     `json:"email,omitempty"`
	Role      Role       `json:"role,omitempty"`
	Country   string     `json:"country,omitempty"`
	Company   string     `json:"company,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts the document store spelling of the identity fields
// (`_id`, `date`) next to the canonical ones.
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	aux := struct {
		*alias
		LegacyID string     `json:"_id"`
		Date     *time.Time `json:"date"`
	}{alias: (*alias)(u)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if u.ID == "" {
		u.ID = aux.LegacyID
	}
	if u.CreatedAt == nil {
		u.CreatedAt = aux.Date
	}
	return nil
}

// FullName joins first and last name
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Profile is the domain profile of the signed-in account. Talent and
// recruiter fields share the record; the API fills the ones for the role.
type Profile struct {
	ID string `json:"id,omitempty"`

	// talent
	Headline           string   `json:"headline,omitempty"`
	Summary            string   `json:"summary,omitempty"`
	Skills             []string `json:"skills,omitempty"`
	Location           string   `json:"location,omitempty"`
	Title              string   `json:"title,omitempty"`
	NeedsSponsorship   bool     `json:"needsSponsorship,omitempty"`
	SponsorshipComment string   `json:"sponsorshipComment,omitempty"`

	// recruiter
	Company  string `json:"company,omitempty"`
	Position string `json:"position,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Website  string `json:"website,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	type alias Profile
	aux := struct {
		*alias
		LegacyID string `json:"_id"`
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = aux.LegacyID
	}
	return nil
}

// BlindView returns the professional fields recruiters may see under blind
// matching. Personal and contact details are dropped.
func (p *Profile) BlindView() TalentCard {
	if p == nil {
		return TalentCard{}
	}
	skills := make([]string, len(p.Skills))
	copy(skills, p.Skills)
	return TalentCard{
		ID:       p.ID,
		Headline: p.Headline,
		Summary:  p.Summary,
		Skills:   skills,
	}
}

// ProfileInput is the editable form of a profile. Skills is the raw
// comma-delimited text as typed by the user.
type ProfileInput struct {
	Headline           string
	Summary            string
	Skills             string
	Location           string
	Title              string
	NeedsSponsorship   bool
	SponsorshipComment string

	Company  string
	Position string
	Bio      string
	Website  string
	LinkedIn string
	Phone    string
}

// ToProfile converts the form into the request body sent to the API.
func (in ProfileInput) ToProfile() *Profile {
	return &Profile{
		Headline:           strings.TrimSpace(in.Headline),
		Summary:            strings.TrimSpace(in.Summary),
		Skills:             NormalizeSkills(in.Skills),
		Location:           strings.TrimSpace(in.Location),
		Title:              strings.TrimSpace(in.Title),
		NeedsSponsorship:   in.NeedsSponsorship,
		SponsorshipComment: strings.TrimSpace(in.SponsorshipComment),
		Company:            strings.TrimSpace(in.Company),
		Position:           strings.TrimSpace(in.Position),
		Bio:                strings.TrimSpace(in.Bio),
		Website:            strings.TrimSpace(in.Website),
		LinkedIn:           strings.TrimSpace(in.LinkedIn),
		Phone:              FormatPhone(in.Phone),
	}
}

// Validate checks the optional contact fields. Everything else is free text.
func (in ProfileInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Website, is.URL),
		validation.Field(&in.LinkedIn, is.URL),
		validation.Field(&in.Phone, validation.By(validPhone)),
	)
}

// DefaultPhoneRegion is used for numbers typed without a country prefix.
const DefaultPhoneRegion = "US"

// FormatPhone returns raw in E.164 form. Numbers that do not parse are
// returned trimmed and unchanged.
func FormatPhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

func validPhone(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	num, err := phonenumbers.Parse(s, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}
	return nil
}

// NormalizeSkills splits a comma-delimited skills string into a set of
// trimmed, non-empty tokens. First occurrence order is kept; repeats are
// dropped case-insensitively.
func NormalizeSkills(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		skill := strings.TrimSpace(part)
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// TalentCard is the blind matching projection of a talent profile.
type TalentCard struct {
	ID                string   `json:"id,omitempty"`
	Headline          string   `json:"headline,omitempty"`
	Summary           string   `json:"summary,omitempty"`
	Skills            []string `json:"skills,omitempty"`
	Location          string   `json:"location,omitempty"`
	YearsOfExperience int      `json:"yearsOfExperience,omitempty"`
}

func (c *TalentCard) UnmarshalJSON(data []byte) error {
	type alias TalentCard
	aux := struct {
		*alias
		LegacyID string `json:"_id"`
	}{alias: (*alias)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = aux.LegacyID
	}
	return nil
}

// ShortlistEntry is a candidate saved by a recruiter.
type ShortlistEntry struct {
	ID        string     `json:"id,omitempty"`
	Talent    TalentCard `json:"talent"`
	Notes     string     `json:"notes,omitempty"`
	DateAdded *time.Time `json:"dateAdded,omitempty"`
}

func (e *ShortlistEntry) UnmarshalJSON(data []byte) error {
	type alias ShortlistEntry
	aux := struct {
		*alias
		LegacyID string `json:"_id"`
	}{alias: (*alias)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = aux.LegacyID
	}
	return nil
}
