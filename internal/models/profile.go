package models

import "time"

// Profile holds the person behind a user account: contact details plus the
// role-specific fields (SIRET for companies, licence data for convoyeurs).
type Profile struct {
	UserID        string    `json:"user_id"`
	Role          string    `json:"role"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	CompanyName   string    `json:"company_name,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	PostalCode    string    `json:"postal_code,omitempty"`
	City          string    `json:"city,omitempty"`
	Siret         string    `json:"siret,omitempty"`
	LicenceNumber string    `json:"licence_number,omitempty"`
	LicenceDate   *string   `json:"licence_date,omitempty"` // YYYY-MM-DD
	BirthDate     *string   `json:"birth_date,omitempty"`   // YYYY-MM-DD
	Languages     []string  `json:"languages,omitempty"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// IsComplete is computed from the other fields on every read and write,
	// never stored. See Profile.Complete.
	IsComplete bool `json:"is_profile_complete"`
}

// Complete reports whether every field required for the profile's role is
// filled in. This is the single completeness authority; callers must not
// persist its result independently of the fields it reads.
func (p *Profile) Complete() bool {
	base := p.FirstName != "" && p.LastName != "" && p.Phone != "" &&
		p.Address != "" && p.PostalCode != "" && p.City != ""

	switch p.Role {
	case RoleConvoyeur:
		return base &&
			p.LicenceNumber != "" &&
			p.LicenceDate != nil && *p.LicenceDate != "" &&
			p.BirthDate != nil && *p.BirthDate != ""
	case RoleClient, RoleConcessionnaire:
		return base && p.CompanyName != "" && p.Siret != ""
	default:
		return base
	}
}

// ProfileUpdateRequest defines the fields a user may change on their own
// profile. Role is fixed at signup and is not updatable here.
type ProfileUpdateRequest struct {
	FirstName     *string  `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName      *string  `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	CompanyName   *string  `json:"company_name,omitempty" validate:"omitempty,max=200"`
	Phone         *string  `json:"phone,omitempty" validate:"omitempty,min=6,max=20"`
	Address       *string  `json:"address,omitempty" validate:"omitempty,max=300"`
	PostalCode    *string  `json:"postal_code,omitempty" validate:"omitempty,min=2,max=12"`
	City          *string  `json:"city,omitempty" validate:"omitempty,max=100"`
	Siret         *string  `json:"siret,omitempty" validate:"omitempty,len=14,numeric"`
	LicenceNumber *string  `json:"licence_number,omitempty" validate:"omitempty,max=50"`
	LicenceDate   *string  `json:"licence_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	BirthDate     *string  `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Languages     []string `json:"languages,omitempty" validate:"omitempty,dive,min=2,max=30"`
}
