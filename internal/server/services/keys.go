// Package services contains server-side business logic: key issuance and the
// account lifecycle (registration, login, expiry).
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/logging"
	"github.com/dmitrijs2005/keyvault/internal/server/config"
	"github.com/dmitrijs2005/keyvault/internal/server/metrics"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/keyvault/internal/timex"
)

const (
	// MaxKeyAttempts bounds regeneration on key collisions.
	MaxKeyAttempts = 1000

	keyRandomLength = 24
)

// KeyService issues and lists access keys. It does not check who is asking;
// the admin gate belongs to the caller.
type KeyService struct {
	repomanager repomanager.RepositoryManager
	prefix      string
	enabled     map[models.DurationClass]struct{}
	generate    func() (string, error)
	clock       timex.Clock
	log         logging.Logger
	metrics     *metrics.Metrics
}

// NewKeyService builds a KeyService from the key prefix and the enabled
// duration classes of cfg. An unknown class in cfg is an error.
func NewKeyService(m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger, mx *metrics.Metrics) (*KeyService, error) {
	enabled := make(map[models.DurationClass]struct{}, len(cfg.EnabledDurations))
	for _, name := range cfg.EnabledDurations {
		class, err := models.ParseDurationClass(name)
		if err != nil {
			return nil, fmt.Errorf("enabled durations: %q: %w", name, err)
		}
		enabled[class] = struct{}{}
	}

	s := &KeyService{
		repomanager: m,
		prefix:      cfg.KeyPrefix,
		enabled:     enabled,
		clock:       timex.SystemClock,
		log:         log.With("module", "keys"),
		metrics:     mx,
	}
	s.generate = s.randomKey
	return s, nil
}

// Enabled reports whether class may be issued.
func (s *KeyService) Enabled(class models.DurationClass) bool {
	_, ok := s.enabled[class]
	return ok
}

// Issue generates a fresh unused key of the given class and persists it.
func (s *KeyService) Issue(ctx context.Context, class models.DurationClass) (key *models.AccessKey, err error) {
	defer func() { s.metrics.RecordOperation("issue_key", outcomeOf(err)) }()

	if !s.Enabled(class) {
		return nil, common.ErrInvalidDuration
	}

	// Each attempt is its own unit of work: a unique violation aborts a
	// Postgres transaction, so a retry must not reuse it.
	err = common.ErrKeySpaceExhausted
	for attempt := 0; attempt < MaxKeyAttempts; attempt++ {
		var candidate string
		candidate, err = s.generate()
		if err != nil {
			err = fmt.Errorf("generate key: %w", err)
			break
		}

		key, err = s.tryCreate(ctx, candidate, class)
		if errors.Is(err, errKeyCollision) {
			err = common.ErrKeySpaceExhausted
			continue
		}
		break
	}
	if err != nil {
		if errors.Is(err, common.ErrKeySpaceExhausted) {
			s.log.Error(ctx, "key space exhausted", "duration_class", class, "attempts", MaxKeyAttempts)
		}
		return nil, storageError(err)
	}

	s.metrics.RecordKeyIssued(string(class))
	s.log.Info(ctx, "key issued", "key", common.Redact(key.Key, len(s.prefix)+5), "duration_class", class)
	return key, nil
}

var errKeyCollision = errors.New("key collision")

// tryCreate stores candidate unless it was issued before, in which case it
// returns errKeyCollision.
func (s *KeyService) tryCreate(ctx context.Context, candidate string, class models.DurationClass) (*models.AccessKey, error) {
	var key *models.AccessKey
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		exists, err := repos.Keys().Exists(ctx, candidate)
		if err != nil {
			return err
		}
		if exists {
			return errKeyCollision
		}

		k := &models.AccessKey{Key: candidate, DurationClass: class, CreatedAt: s.clock().UTC()}
		if err := repos.Keys().Create(ctx, k); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return errKeyCollision
			}
			return err
		}
		key = k
		return nil
	})
	if err != nil {
		return nil, err
	}
	return key, nil
}

// List returns all issued keys, oldest first.
func (s *KeyService) List(ctx context.Context) ([]*models.AccessKey, error) {
	var result []*models.AccessKey
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		var err error
		result, err = repos.Keys().List(ctx)
		return err
	})
	if err != nil {
		return nil, storageError(err)
	}
	return result, nil
}

func (s *KeyService) randomKey() (string, error) {
	suffix, err := common.RandomString(common.KeyAlphabet, keyRandomLength)
	if err != nil {
		return "", err
	}
	return s.prefix + "-" + suffix, nil
}
