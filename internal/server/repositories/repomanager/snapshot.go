package repomanager

import (
	"bytes"
	"context"
	"sync"

	"github.com/dmitrijs2005/keyvault/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/keys"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/snapshot"
)

// SnapshotRepositoryManager loads the whole document for every unit of work
// and writes it back only when fn succeeds and something changed.
type SnapshotRepositoryManager struct {
	blob snapshot.Blob
	mu   sync.Mutex
}

type snapshotRepositories struct {
	doc *snapshot.Document
}

func (r *snapshotRepositories) Keys() keys.Repository {
	return snapshot.NewKeysRepository(r.doc)
}

func (r *snapshotRepositories) Accounts() accounts.Repository {
	return snapshot.NewAccountsRepository(r.doc)
}

func NewSnapshotRepositoryManager(blob snapshot.Blob) *SnapshotRepositoryManager {
	return &SnapshotRepositoryManager{blob: blob}
}

// RunMigrations validates the stored document and creates an empty one if
// none exists.
func (m *SnapshotRepositoryManager) RunMigrations(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.blob.Load(ctx)
	if err != nil {
		return err
	}
	doc, err := snapshot.Decode(data)
	if err != nil {
		return err
	}
	if data != nil {
		return nil
	}
	out, err := doc.Encode()
	if err != nil {
		return err
	}
	return m.blob.Save(ctx, out)
}

func (m *SnapshotRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.blob.Load(ctx)
	if err != nil {
		return err
	}
	doc, err := snapshot.Decode(data)
	if err != nil {
		return err
	}

	if err := fn(ctx, &snapshotRepositories{doc: doc}); err != nil {
		return err
	}

	out, err := doc.Encode()
	if err != nil {
		return err
	}
	if bytes.Equal(out, data) {
		return nil
	}
	return m.blob.Save(ctx, out)
}

func (m *SnapshotRepositoryManager) Close() error {
	return nil
}
