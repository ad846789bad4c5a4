package auth

import "time"

type Account struct {
	ID             int64
	Username       string
	Email          string
	PasswordDigest string
	FullName       string
	IsActive       bool
	CreatedAt      time.Time
}

// AuthResult is what both Register and Login hand back to the transport
// layer: a freshly minted token plus the identity it was minted for.
type AuthResult struct {
	Token    string
	Username string
	Email    string
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}
