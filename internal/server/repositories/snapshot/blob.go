package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/keyvault/internal/filex"
)

// Blob stores the encoded document. Load returns (nil, nil) when nothing has
// been saved yet.
type Blob interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// FileBlob keeps the document in a local file written atomically.
type FileBlob struct {
	path string
}

func NewFileBlob(path string) *FileBlob {
	return &FileBlob{path: path}
}

func (b *FileBlob) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}
	return data, nil
}

func (b *FileBlob) Save(_ context.Context, data []byte) error {
	return filex.AtomicWriteFile(b.path, data, 0o600)
}

// MemoryBlob keeps the document in memory. Used by tests and by the
// "memory" storage backend.
type MemoryBlob struct {
	data []byte
}

func (b *MemoryBlob) Load(_ context.Context) ([]byte, error) {
	if b.data == nil {
		return nil, nil
	}
	return append([]byte(nil), b.data...), nil
}

func (b *MemoryBlob) Save(_ context.Context, data []byte) error {
	b.data = append([]byte(nil), data...)
	return nil
}
