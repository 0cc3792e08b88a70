package models

import "time"

// AccessKey is a single-use token redeemable for one account registration.
type AccessKey struct {
	Key           string        `json:"key"`
	DurationClass DurationClass `json:"duration_class"`
	Used          bool          `json:"used"`
	CreatedAt     time.Time     `json:"created_at"`
}
