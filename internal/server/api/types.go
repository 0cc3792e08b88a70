package api

import "time"

// GenerateKeyRequest asks for a new access key. The class is given either
// by name (duration_class) or by the legacy day count (duration_days: 0, 13
// or 30). Pin carries the admin token for clients that cannot set the
// X-Admin-Token header.
type GenerateKeyRequest struct {
	Pin           string `json:"pin,omitempty"`
	DurationClass string `json:"duration_class,omitempty"`
	DurationDays  *int   `json:"duration_days,omitempty"`
}

type GenerateKeyResponse struct {
	Key           string    `json:"key"`
	DurationClass string    `json:"duration_class"`
	DurationDays  int       `json:"duration_days"`
	CreatedAt     time.Time `json:"created_at"`
}

type KeyInfo struct {
	Key           string    `json:"key"`
	DurationClass string    `json:"duration_class"`
	Used          bool      `json:"used"`
	CreatedAt     time.Time `json:"created_at"`
}

type ListKeysResponse struct {
	Keys []KeyInfo `json:"keys"`
}

type RegisterRequest struct {
	Key      string `json:"key"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type LoginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionResponse struct {
	AccountID string    `json:"account_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}
