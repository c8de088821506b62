package identity

import "time"

// User represents a registered wallet owner.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Credentials carries a login or registration request.
type Credentials struct {
	Name     string
	Email    string
	Password string
}
