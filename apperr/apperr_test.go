package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsMatchWithErrorsIs(t *testing.T) {
	err := Validation("window must be at least %d day", 1)
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "validation failed: window must be at least 1 day", err.Error())

	wrapped := fmt.Errorf("create rule: %w", NotFound("rule %s", "abc"))
	assert.ErrorIs(t, wrapped, ErrNotFound)

	var appErr *Error
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, "rule abc", appErr.Message)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed")
	err := Wrap(ErrValidation, cause, "asset %s already exists", "EXT-1")
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
}

func TestUnauthorized(t *testing.T) {
	assert.ErrorIs(t, Unauthorized("outside scope"), ErrUnauthorized)
}
