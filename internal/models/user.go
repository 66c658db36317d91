package models

import "time"

// Role values stored on profiles. Company-style roles (client and
// concessionnaire) create missions; convoyeurs execute them.
const (
	RoleClient          = "client"
	RoleConvoyeur       = "convoyeur"
	RoleAdmin           = "admin"
	RoleConcessionnaire = "concessionnaire"
	RoleAutre           = "autre"
)

// User is the authentication identity. Role lives here because it is needed
// in the JWT; everything else about the person lives on the Profile.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           string    `json:"role"`
	AuthProvider   string    `json:"auth_provider"`
	AuthProviderID string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=client convoyeur concessionnaire autre"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ActivationRequest struct {
	Token string `json:"token" validate:"required"`
}

type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	User        *User    `json:"user"`
	Profile     *Profile `json:"profile,omitempty"`
}

// ResendActivationRequest defines the body for the resend activation email request.
type ResendActivationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RequestPasswordResetRequest defines the body for the request password reset endpoint.
type RequestPasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest defines the body for completing the password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}
