// Package keys provides storage for issued access keys.
package keys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/dbx"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, key *models.AccessKey) error {
	query := `
		INSERT INTO access_keys (key, duration_class, used, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, key.Key, string(key.DurationClass), key.Used, key.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, key string) (*models.AccessKey, error) {
	query := `
		SELECT key, duration_class, used, created_at
		FROM access_keys
		WHERE key = $1
	`
	k := &models.AccessKey{}
	var class string
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&k.Key, &class, &k.Used, &k.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	k.DurationClass = models.DurationClass(class)
	return k, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, key string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM access_keys WHERE key = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// MarkUsed is conditional on used = FALSE, so two transactions racing on
// the same key cannot both succeed.
func (r *PostgresRepository) MarkUsed(ctx context.Context, key string) error {
	query := `
		UPDATE access_keys SET used = TRUE
		WHERE key = $1 AND used = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrKeyAlreadyUsed
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.AccessKey, error) {
	query := `
		SELECT key, duration_class, used, created_at
		FROM access_keys
		ORDER BY created_at, key
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.AccessKey
	for rows.Next() {
		k := &models.AccessKey{}
		var class string
		if err := rows.Scan(&k.Key, &class, &k.Used, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		k.DurationClass = models.DurationClass(class)
		result = append(result, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
