package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/keyvault/internal/common"
)

// DurationClass is the lifespan category an access key grants to the account
// created from it.
type DurationClass string

const (
	DurationTrial     DurationClass = "trial"
	DurationStandard  DurationClass = "standard"
	DurationPermanent DurationClass = "permanent"
)

// AllDurationClasses lists every class the service knows about. Which of them
// are accepted for issuance is a configuration decision.
var AllDurationClasses = []DurationClass{DurationTrial, DurationStandard, DurationPermanent}

const day = 24 * time.Hour

// ParseDurationClass accepts a class name case-insensitively.
func ParseDurationClass(s string) (DurationClass, error) {
	d := DurationClass(strings.ToLower(strings.TrimSpace(s)))
	if !d.Known() {
		return "", common.ErrInvalidDuration
	}
	return d, nil
}

// DurationClassFromDays maps the legacy day-count encoding, where 0 means
// permanent.
func DurationClassFromDays(days int) (DurationClass, error) {
	switch days {
	case 0:
		return DurationPermanent, nil
	case 13:
		return DurationTrial, nil
	case 30:
		return DurationStandard, nil
	default:
		return "", common.ErrInvalidDuration
	}
}

// Known reports whether d is one of the defined classes.
func (d DurationClass) Known() bool {
	switch d {
	case DurationTrial, DurationStandard, DurationPermanent:
		return true
	}
	return false
}

// Days returns the legacy day count (0 for permanent).
func (d DurationClass) Days() int {
	switch d {
	case DurationTrial:
		return 13
	case DurationStandard:
		return 30
	default:
		return 0
	}
}

// Lifetime returns how long an account of this class lives. The second
// result is false for permanent (and unknown) classes.
func (d DurationClass) Lifetime() (time.Duration, bool) {
	switch d {
	case DurationTrial, DurationStandard:
		return time.Duration(d.Days()) * day, true
	default:
		return 0, false
	}
}

// ExpiryFrom computes the expiry of an account created at createdAt. Only
// DurationPermanent never expires; an unknown class expires at createdAt.
func (d DurationClass) ExpiryFrom(createdAt time.Time) Expiry {
	if d == DurationPermanent {
		return NeverExpires
	}
	lifetime, ok := d.Lifetime()
	if !ok {
		return ExpiresAt(createdAt)
	}
	return ExpiresAt(createdAt.Add(lifetime))
}
