package accounts

import (
	"context"

	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

// Repository persists accounts, keyed by username.
type Repository interface {
	// Create stores a new account. A duplicate username yields
	// common.ErrUsernameTaken.
	Create(ctx context.Context, account *models.Account) error

	// GetByUsername returns the account or common.ErrorNotFound.
	GetByUsername(ctx context.Context, username string) (*models.Account, error)

	// Delete removes the account. Deleting a missing account is not an error.
	Delete(ctx context.Context, username string) error

	// List returns every stored account.
	List(ctx context.Context) ([]*models.Account, error)
}
