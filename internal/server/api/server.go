// Package api is the HTTP/JSON adapter of the service. It decodes requests,
// performs the admin capability check, calls the core services and maps
// their errors to status codes.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/logging"
	"github.com/dmitrijs2005/keyvault/internal/netx"
	"github.com/dmitrijs2005/keyvault/internal/server/auth"
	"github.com/dmitrijs2005/keyvault/internal/server/config"
	"github.com/dmitrijs2005/keyvault/internal/server/metrics"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
	"github.com/dmitrijs2005/keyvault/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	maxBodyBytes   = 8 * 1024
	requestTimeout = 5 * time.Second
)

// KeyIssuer issues and lists access keys.
type KeyIssuer interface {
	Issue(ctx context.Context, class models.DurationClass) (*models.AccessKey, error)
	List(ctx context.Context) ([]*models.AccessKey, error)
}

// AccountManager registers and authenticates accounts.
type AccountManager interface {
	Register(ctx context.Context, key, username, password string) (*models.Account, error)
	Authenticate(ctx context.Context, username, password string) (*services.Session, error)
}

type Server struct {
	cfg      *config.Config
	keys     KeyIssuer
	accounts AccountManager
	log      logging.Logger
	metrics  *metrics.Metrics
	mux      *http.ServeMux
}

// NewServer registers the routes. reg may be nil, in which case /metrics is
// not served.
func NewServer(cfg *config.Config, keys KeyIssuer, accounts AccountManager, log logging.Logger, mx *metrics.Metrics, reg *prometheus.Registry) *Server {
	mux := http.NewServeMux()

	s := &Server{
		cfg:      cfg,
		keys:     keys,
		accounts: accounts,
		log:      log.With("module", "http"),
		metrics:  mx,
		mux:      mux,
	}

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	if reg != nil && cfg.MetricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler(reg))
	}

	mux.HandleFunc("POST /generate_key", s.handleGenerateKey)
	mux.HandleFunc("GET /keys", s.handleListKeys)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /session", s.handleSession)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.withMiddleware(s.mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleGenerateKey(w http.ResponseWriter, r *http.Request) {
	var req GenerateKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if !s.isAdmin(r, req.Pin) {
		s.log.Warn(r.Context(), "admin check failed", "client_ip", netx.ClientIP(r, s.cfg.TrustProxy))
		forbidden(w, "invalid admin token")
		return
	}

	class, err := requestedClass(req)
	if err != nil {
		badRequest(w, "invalid duration")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	key, err := s.keys.Issue(ctx, class)
	if err != nil {
		s.writeCoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateKeyResponse{
		Key:           key.Key,
		DurationClass: string(key.DurationClass),
		DurationDays:  key.DurationClass.Days(),
		CreatedAt:     key.CreatedAt,
	})
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	if !s.isAdmin(r, "") {
		forbidden(w, "invalid admin token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	keys, err := s.keys.List(ctx)
	if err != nil {
		s.writeCoreError(w, r, err)
		return
	}

	resp := ListKeysResponse{Keys: make([]KeyInfo, 0, len(keys))}
	for _, k := range keys {
		resp.Keys = append(resp.Keys, KeyInfo{
			Key:           k.Key,
			DurationClass: string(k.DurationClass),
			Used:          k.Used,
			CreatedAt:     k.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if _, err := s.accounts.Register(ctx, req.Key, req.Username, req.Password); err != nil {
		s.writeCoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "registration successful"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	session, err := s.accounts.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		s.writeCoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Message:   "login successful",
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	token, ok := netx.BearerToken(r)
	if !ok {
		unauthorized(w)
		return
	}

	claims, err := auth.ParseToken(token, []byte(s.cfg.SecretKey))
	if err != nil {
		unauthorized(w)
		return
	}

	resp := SessionResponse{AccountID: claims.Subject, Username: claims.Username}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	writeJSON(w, http.StatusOK, resp)
}

// isAdmin compares the presented token (header first, then the legacy body
// field) with the configured one in constant time. An empty configured
// token disables admin access.
func (s *Server) isAdmin(r *http.Request, pin string) bool {
	if s.cfg.AdminToken == "" {
		return false
	}
	presented := r.Header.Get(common.AdminTokenHeaderName)
	if presented == "" {
		presented = pin
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(s.cfg.AdminToken)) == 1
}

func (s *Server) writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err, s.cfg.MaskUnknownUser)
	if status >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed", "error", err, "request_id", requestID(r.Context()))
	}
	writeError(w, status, msg)
}

// requestedClass prefers the class name and falls back to the day count.
func requestedClass(req GenerateKeyRequest) (models.DurationClass, error) {
	if req.DurationClass != "" {
		return models.ParseDurationClass(req.DurationClass)
	}
	if req.DurationDays != nil {
		return models.DurationClassFromDays(*req.DurationDays)
	}
	return "", common.ErrInvalidDuration
}

// decodeJSON reads exactly one JSON object from the body into v. On failure
// it writes a 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if !isJSONContentType(r) {
		badRequest(w, "content-type must be application/json")
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		badRequest(w, mapDecodeError(err))
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		badRequest(w, "invalid json")
		return false
	}
	return true
}
