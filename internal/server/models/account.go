package models

import "time"

// Account is a registered user. PasswordHash is produced by the credential
// hasher; the plaintext password is never stored.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	Expiry       Expiry    `json:"expires_at"`
}

// IsValid reports whether the account has not expired at now.
func (a *Account) IsValid(now time.Time) bool {
	return a.Expiry.IsValid(now)
}
