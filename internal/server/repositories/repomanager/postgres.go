// Package repomanager provides the record store: a RepositoryManager that
// vends repositories inside serialized units of work, backed either by
// PostgreSQL (with goose migrations) or by a JSON snapshot.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/keyvault/internal/dbx"
	"github.com/dmitrijs2005/keyvault/internal/server/migrations"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/keys"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager runs each unit of work in a database transaction.
type PostgresRepositoryManager struct {
	db *sql.DB
	mu sync.Mutex
}

type postgresRepositories struct {
	tx dbx.DBTX
}

func (r *postgresRepositories) Keys() keys.Repository {
	return keys.NewPostgresRepository(r.tx)
}

func (r *postgresRepositories) Accounts() accounts.Repository {
	return accounts.NewPostgresRepository(r.tx)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// OpenPostgres connects to dsn through the pgx stdlib driver and verifies
// the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewPostgresRepositoryManager(db), nil
}

// NewPostgresRepositoryManager wraps an already opened database.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}

// RunMigrations sets up goose with the embedded migrations and runs them.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &postgresRepositories{tx: tx})
	})
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
