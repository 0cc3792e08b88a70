package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/keyvault/internal/cryptox"
	"github.com/dmitrijs2005/keyvault/internal/logging"
	"github.com/dmitrijs2005/keyvault/internal/server/config"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/snapshot"
	"github.com/stretchr/testify/require"
)

var fastParams = cryptox.Params{Time: 1, Memory: 8, Threads: 1, SaltLen: 16, KeyLen: 32}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

type fixture struct {
	store    repomanager.RepositoryManager
	keys     *KeyService
	accounts *AccountService
	clock    *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig()
	store := repomanager.NewSnapshotRepositoryManager(&snapshot.MemoryBlob{})
	require.NoError(t, store.RunMigrations(context.Background()))

	clock := newFakeClock()

	ks, err := NewKeyService(store, cfg, logging.Nop{}, nil)
	require.NoError(t, err)
	ks.clock = clock.Now

	as := NewAccountService(store, cryptox.NewArgon2idHasher(fastParams), cfg, logging.Nop{}, nil)
	as.clock = clock.Now

	return &fixture{store: store, keys: ks, accounts: as, clock: clock}
}

// failingManager fails every unit of work with err.
type failingManager struct {
	err error
}

func (f *failingManager) RunMigrations(context.Context) error { return nil }
func (f *failingManager) Close() error                        { return nil }
func (f *failingManager) WithTx(context.Context, func(context.Context, repomanager.Repositories) error) error {
	return f.err
}

var errDiskGone = errors.New("disk gone")
