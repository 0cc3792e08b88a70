package snapshot

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

// AccountsRepository implements accounts.Repository over a loaded Document.
type AccountsRepository struct {
	doc *Document
}

func NewAccountsRepository(doc *Document) *AccountsRepository {
	return &AccountsRepository{doc: doc}
}

func (r *AccountsRepository) Create(_ context.Context, a *models.Account) error {
	if _, ok := r.doc.Accounts[a.Username]; ok {
		return common.ErrUsernameTaken
	}
	acc := *a
	r.doc.Accounts[a.Username] = &acc
	return nil
}

func (r *AccountsRepository) GetByUsername(_ context.Context, username string) (*models.Account, error) {
	a, ok := r.doc.Accounts[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *a
	return &out, nil
}

func (r *AccountsRepository) Delete(_ context.Context, username string) error {
	delete(r.doc.Accounts, username)
	return nil
}

func (r *AccountsRepository) List(_ context.Context) ([]*models.Account, error) {
	result := make([]*models.Account, 0, len(r.doc.Accounts))
	for _, a := range r.doc.Accounts {
		out := *a
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}
