package snapshot

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

// KeysRepository implements keys.Repository over a loaded Document.
// Records are copied in and out so callers never alias document state.
type KeysRepository struct {
	doc *Document
}

func NewKeysRepository(doc *Document) *KeysRepository {
	return &KeysRepository{doc: doc}
}

func (r *KeysRepository) Create(_ context.Context, key *models.AccessKey) error {
	if _, ok := r.doc.Keys[key.Key]; ok {
		return common.ErrorAlreadyExists
	}
	k := *key
	r.doc.Keys[key.Key] = &k
	return nil
}

func (r *KeysRepository) Get(_ context.Context, key string) (*models.AccessKey, error) {
	k, ok := r.doc.Keys[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *k
	return &out, nil
}

func (r *KeysRepository) Exists(_ context.Context, key string) (bool, error) {
	_, ok := r.doc.Keys[key]
	return ok, nil
}

func (r *KeysRepository) MarkUsed(_ context.Context, key string) error {
	k, ok := r.doc.Keys[key]
	if !ok || k.Used {
		return common.ErrKeyAlreadyUsed
	}
	k.Used = true
	return nil
}

func (r *KeysRepository) List(_ context.Context) ([]*models.AccessKey, error) {
	result := make([]*models.AccessKey, 0, len(r.doc.Keys))
	for _, k := range r.doc.Keys {
		out := *k
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Key < result[j].Key
	})
	return result, nil
}
