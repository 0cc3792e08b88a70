package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/cryptox"
	"github.com/dmitrijs2005/keyvault/internal/logging"
	"github.com/dmitrijs2005/keyvault/internal/server/auth"
	"github.com/dmitrijs2005/keyvault/internal/server/config"
	"github.com/dmitrijs2005/keyvault/internal/server/metrics"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/keyvault/internal/timex"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   *models.Account
}

// AccountService runs the account lifecycle: registration by redeeming an
// access key, and login with expiry enforcement. Expired accounts are removed
// lazily by a sweep at the start of every call.
type AccountService struct {
	repomanager     repomanager.RepositoryManager
	hasher          cryptox.Hasher
	clock           timex.Clock
	newID           func() string
	jwtSecret       []byte
	sessionValidity time.Duration
	log             logging.Logger
	metrics         *metrics.Metrics
}

// NewAccountService constructs an AccountService using the record store and
// server config.
func NewAccountService(m repomanager.RepositoryManager, h cryptox.Hasher, cfg *config.Config, log logging.Logger, mx *metrics.Metrics) *AccountService {
	return &AccountService{
		repomanager:     m,
		hasher:          h,
		clock:           timex.SystemClock,
		newID:           uuid.NewString,
		jwtSecret:       []byte(cfg.SecretKey),
		sessionValidity: cfg.SessionValidityDuration,
		log:             log.With("module", "accounts"),
		metrics:         mx,
	}
}

// Register redeems key for a new account. The account is created and the key
// is marked used in one unit of work: either both happen or neither.
func (s *AccountService) Register(ctx context.Context, key, username, password string) (account *models.Account, err error) {
	defer func() { s.metrics.RecordOperation("register", outcomeOf(err)) }()

	if key == "" || username == "" || password == "" {
		return nil, common.ErrMissingField
	}

	now := s.clock()
	if err := s.sweep(ctx, now, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	err = s.repomanager.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		accessKey, err := repos.Keys().Get(ctx, key)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidKey
			}
			return err
		}
		if accessKey.Used {
			return common.ErrKeyAlreadyUsed
		}
		if !accessKey.DurationClass.Known() {
			s.log.Error(ctx, "stored key has unknown duration class",
				"key", common.Redact(key, 8),
				"duration_class", string(accessKey.DurationClass),
			)
			return common.ErrInvalidKey
		}

		_, err = repos.Accounts().GetByUsername(ctx, username)
		if err == nil {
			return common.ErrUsernameTaken
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		a := &models.Account{
			ID:           s.newID(),
			Username:     username,
			PasswordHash: hash,
			CreatedAt:    now.UTC(),
			Expiry:       accessKey.DurationClass.ExpiryFrom(now),
		}
		if err := repos.Accounts().Create(ctx, a); err != nil {
			return err
		}
		if err := repos.Keys().MarkUsed(ctx, key); err != nil {
			return err
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}

	s.log.Info(ctx, "account registered",
		"username", username,
		"key", common.Redact(key, 8),
		"expires_at", string(account.Expiry),
	)
	return account, nil
}

// Authenticate checks username and password. An account found expired is
// deleted and reported as common.ErrAccountExpired; the next attempt then
// sees common.ErrUserNotFound.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (session *Session, err error) {
	defer func() { s.metrics.RecordOperation("login", outcomeOf(err)) }()

	if username == "" || password == "" {
		return nil, common.ErrMissingField
	}

	now := s.clock()
	// The caller's own account is left to the check below so an expired
	// login is reported as such.
	if err := s.sweep(ctx, now, username); err != nil {
		return nil, err
	}

	var (
		account *models.Account
		expired bool
	)
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		a, err := repos.Accounts().GetByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrUserNotFound
			}
			return err
		}
		if !a.IsValid(now) {
			expired = true
			return repos.Accounts().Delete(ctx, username)
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}
	if expired {
		s.metrics.RecordAccountsSwept(1)
		s.log.Info(ctx, "expired account deleted on login", "username", username)
		return nil, common.ErrAccountExpired
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		if oopsErr, isOops := oops.AsOops(err); isOops {
			s.log.Error(ctx, "stored credential unreadable", "username", username, "code", oopsErr.Code())
		} else {
			s.log.Error(ctx, "credential verification failed", "username", username, "error", err)
		}
		return nil, common.ErrInvalidCredentials
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return s.newSession(account, now)
}

// sweep deletes every account that is no longer valid at now, except the
// one named skip. It commits on its own, before the calling operation.
func (s *AccountService) sweep(ctx context.Context, now time.Time, skip string) error {
	var removed []string
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		removed = removed[:0]
		list, err := repos.Accounts().List(ctx)
		if err != nil {
			return err
		}
		for _, a := range list {
			if a.Username == skip || a.IsValid(now) {
				continue
			}
			if err := repos.Accounts().Delete(ctx, a.Username); err != nil {
				return err
			}
			removed = append(removed, a.Username)
		}
		return nil
	})
	if err != nil {
		s.log.Error(ctx, "expiry sweep failed", "error", err)
		return storageError(err)
	}

	if len(removed) > 0 {
		s.metrics.RecordAccountsSwept(len(removed))
		s.log.Info(ctx, "expired accounts deleted", "count", len(removed))
	}
	return nil
}

// newSession signs a token that never outlives the account.
func (s *AccountService) newSession(a *models.Account, now time.Time) (*Session, error) {
	expiresAt := now.Add(s.sessionValidity)
	if t, err := a.Expiry.Time(); err == nil && t.Before(expiresAt) {
		expiresAt = t
	}

	token, err := auth.GenerateToken(a.ID, a.Username, s.jwtSecret, now, expiresAt)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, Account: a}, nil
}
