package models

import (
	"errors"
	"time"
)

// Expiry is the persisted expiry marker of an account: NeverExpires for
// permanent accounts, otherwise an RFC 3339 timestamp.
type Expiry string

// NeverExpires marks a permanent account.
const NeverExpires Expiry = "never"

var errNoTimestamp = errors.New("expiry has no timestamp")

// ExpiresAt encodes t as an expiry marker.
func ExpiresAt(t time.Time) Expiry {
	return Expiry(t.UTC().Format(time.RFC3339Nano))
}

// IsNever reports whether e is the permanent marker.
func (e Expiry) IsNever() bool {
	return e == NeverExpires
}

// Time parses the timestamp held by e.
func (e Expiry) Time() (time.Time, error) {
	if e.IsNever() {
		return time.Time{}, errNoTimestamp
	}
	return time.Parse(time.RFC3339Nano, string(e))
}

// IsValid reports whether an account with this expiry is still usable at now.
// A marker that cannot be parsed is treated as expired so that corrupt data
// never grants access.
func (e Expiry) IsValid(now time.Time) bool {
	if e.IsNever() {
		return true
	}
	t, err := e.Time()
	if err != nil {
		return false
	}
	return now.Before(t)
}
