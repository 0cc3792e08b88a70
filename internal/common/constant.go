package common

// AdminTokenHeaderName carries the admin capability token on key
// management requests.
const AdminTokenHeaderName = "X-Admin-Token"

// RequestIDHeaderName is echoed back on every HTTP response.
const RequestIDHeaderName = "X-Request-Id"

// KeyAlphabet is the symbol set of the random part of an access key.
const KeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
