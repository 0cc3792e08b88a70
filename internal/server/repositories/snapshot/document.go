// Package snapshot implements the keys and accounts repositories on top of a
// single JSON document that is loaded and saved as a whole. The document
// lives in a Blob: a local file or an S3 object.
package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

// Document is the persisted state of both record sets.
type Document struct {
	Keys     map[string]*models.AccessKey `json:"keys"`
	Accounts map[string]*models.Account   `json:"accounts"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Keys:     map[string]*models.AccessKey{},
		Accounts: map[string]*models.Account{},
	}
}

// Decode parses data into a document. Empty input yields an empty document.
func Decode(data []byte) (*Document, error) {
	doc := NewDocument()
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.Keys == nil {
		doc.Keys = map[string]*models.AccessKey{}
	}
	if doc.Accounts == nil {
		doc.Accounts = map[string]*models.Account{}
	}
	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return doc, nil
}

// validate rejects null entries and entries filed under a map key other than
// their own identity.
func (d *Document) validate() error {
	for name, k := range d.Keys {
		if k == nil {
			return fmt.Errorf("key %q: null entry", name)
		}
		if k.Key != name {
			return fmt.Errorf("key %q: entry holds key %q", name, k.Key)
		}
	}
	for name, a := range d.Accounts {
		if a == nil {
			return fmt.Errorf("account %q: null entry", name)
		}
		if a.Username != name {
			return fmt.Errorf("account %q: entry holds username %q", name, a.Username)
		}
	}
	return nil
}

// Encode serializes the document in an indented, diff-friendly form.
func (d *Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}
