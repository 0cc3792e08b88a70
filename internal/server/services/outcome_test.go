package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestStorageError(t *testing.T) {
	assert.NoError(t, storageError(nil))

	wrapped := fmt.Errorf("lookup: %w", common.ErrInvalidKey)
	assert.Same(t, wrapped, storageError(wrapped))

	cause := errors.New("disk gone")
	err := storageError(cause)
	assert.ErrorIs(t, err, common.ErrStorageFailure)
	assert.ErrorIs(t, err, cause)
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{common.ErrUsernameTaken, "username_taken"},
		{fmt.Errorf("x: %w", common.ErrAccountExpired), "account_expired"},
		{storageError(errors.New("io")), "storage_failure"},
		{errors.New("other"), "internal_error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, outcomeOf(tt.err))
	}
}
