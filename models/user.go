package models

import "time"

const (
	// DefaultAdminUsername is used when bootstrapping the first account.
	DefaultAdminUsername = "admin"
)

// User models a Reelhouse account able to own watch-progress records.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // bcrypt hash, excluded from JSON (security)
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LoginRequest is the credential payload accepted by the login endpoint.
// Identifier may be a username or an email address.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResponse carries the issued bearer token and the account it belongs to.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
