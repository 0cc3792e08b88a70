package keys

import (
	"context"

	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

// Repository persists access keys, keyed by key string.
type Repository interface {
	// Create stores a new key. A duplicate key string yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, key *models.AccessKey) error

	// Get returns the key or common.ErrorNotFound.
	Get(ctx context.Context, key string) (*models.AccessKey, error)

	// Exists reports whether the key string has ever been issued.
	Exists(ctx context.Context, key string) (bool, error)

	// MarkUsed flips the used flag of an unused key. An unknown or already
	// used key yields common.ErrKeyAlreadyUsed.
	MarkUsed(ctx context.Context, key string) error

	// List returns all keys ordered by creation time.
	List(ctx context.Context) ([]*models.AccessKey, error)
}
