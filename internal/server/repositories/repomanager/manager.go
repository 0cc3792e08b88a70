package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/keyvault/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/keys"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/snapshot"
)

// Repositories is the view of the record store inside one unit of work.
type Repositories interface {
	Keys() keys.Repository
	Accounts() accounts.Repository
}

// RepositoryManager owns the record store. WithTx serializes units of work
// process-wide: fn sees a consistent state and its changes are persisted
// only if it returns nil.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Close() error
}

// Storage backends accepted by Open.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
	BackendMemory   = "memory"
)

// Options select and configure a storage backend.
type Options struct {
	Backend  string
	FilePath string
	DSN      string
	S3       snapshot.S3Options
}

// Open constructs the manager for opts.Backend and runs its migrations.
func Open(ctx context.Context, opts Options) (RepositoryManager, error) {
	var (
		m   RepositoryManager
		err error
	)

	switch opts.Backend {
	case BackendPostgres:
		m, err = OpenPostgres(ctx, opts.DSN)
	case BackendFile:
		if opts.FilePath == "" {
			return nil, fmt.Errorf("file backend requires a path")
		}
		m = NewSnapshotRepositoryManager(snapshot.NewFileBlob(opts.FilePath))
	case BackendS3:
		var blob *snapshot.S3Blob
		blob, err = snapshot.NewS3Blob(ctx, opts.S3)
		if err == nil {
			m = NewSnapshotRepositoryManager(blob)
		}
	case BackendMemory:
		m = NewSnapshotRepositoryManager(&snapshot.MemoryBlob{})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return m, nil
}
