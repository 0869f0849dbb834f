package auth

import (
	"github.com/matespatagonico/storefront/pkg/backend"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the sign-up form. ConfirmPassword never leaves the gateway.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Name            string `json:"name" validate:"required"`
	Surname         string `json:"surname" validate:"required"`
	Phone           string `json:"phone" validate:"omitempty,max=32"`
}

type ProfileRequest struct {
	Email   string `json:"email" validate:"omitempty,email"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Phone   string `json:"phone" validate:"omitempty,max=32"`
}

// LoginResponse is returned after a successful login or registration. The
// session id is the bearer the client presents on every later request.
type LoginResponse struct {
	SessionID string       `json:"session_id"`
	User      backend.User `json:"user"`
	IsAdmin   bool         `json:"is_admin"`
}
