package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/keyvault/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "unauthorized")
}

func forbidden(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusForbidden, msg)
}

func internalServerError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return len(ct) >= len("application/json") && ct[:len("application/json")] == "application/json"
}

func mapDecodeError(err error) string {
	var synErr *json.SyntaxError
	if errors.As(err, &synErr) {
		return "invalid json"
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return "invalid json"
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return "invalid json field type"
	}
	return "invalid request body"
}

const maskedLoginMessage = "invalid username or password"

// errorStatus maps a core error to the HTTP status and the message shown to
// the client. Unknown errors are internal and their text is not exposed.
func errorStatus(err error, maskUnknownUser bool) (int, string) {
	switch {
	case errors.Is(err, common.ErrMissingField):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrInvalidDuration):
		return http.StatusBadRequest, "invalid duration"
	case errors.Is(err, common.ErrInvalidKey):
		return http.StatusBadRequest, "invalid key"
	case errors.Is(err, common.ErrKeyAlreadyUsed):
		return http.StatusBadRequest, "key already used"
	case errors.Is(err, common.ErrUsernameTaken):
		return http.StatusBadRequest, "username already taken"
	case errors.Is(err, common.ErrUserNotFound):
		if maskUnknownUser {
			return http.StatusUnauthorized, maskedLoginMessage
		}
		return http.StatusNotFound, "user not found"
	case errors.Is(err, common.ErrAccountExpired):
		return http.StatusForbidden, "account expired and deleted"
	case errors.Is(err, common.ErrInvalidCredentials):
		if maskUnknownUser {
			return http.StatusUnauthorized, maskedLoginMessage
		}
		return http.StatusUnauthorized, "invalid password"
	case errors.Is(err, common.ErrKeySpaceExhausted):
		return http.StatusServiceUnavailable, "key space exhausted"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
