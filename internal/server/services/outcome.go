package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/keyvault/internal/common"
)

// domainErrors are returned to callers as they are. Anything else coming out
// of the record store is a storage failure.
var domainErrors = []struct {
	err     error
	outcome string
}{
	{common.ErrMissingField, "missing_field"},
	{common.ErrInvalidDuration, "invalid_duration"},
	{common.ErrKeySpaceExhausted, "key_space_exhausted"},
	{common.ErrInvalidKey, "invalid_key"},
	{common.ErrKeyAlreadyUsed, "key_already_used"},
	{common.ErrUsernameTaken, "username_taken"},
	{common.ErrUserNotFound, "user_not_found"},
	{common.ErrAccountExpired, "account_expired"},
	{common.ErrInvalidCredentials, "invalid_credentials"},
	{common.ErrStorageFailure, "storage_failure"},
}

func isDomainError(err error) bool {
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			return true
		}
	}
	return false
}

// storageError keeps domain errors intact and marks everything else as
// common.ErrStorageFailure, preserving the cause.
func storageError(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrStorageFailure, err)
}

// outcomeOf is the metrics label for the result of an operation.
func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			return d.outcome
		}
	}
	return "internal_error"
}
