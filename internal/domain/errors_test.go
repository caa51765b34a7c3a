package domain

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidStateRefinements(t *testing.T) {
	for _, err := range []error{ErrUnknownState, ErrInvalidPage, ErrAlreadyApproved, ErrItemUnavailable, ErrCommentNotAllowed} {
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.NotErrorIs(t, err, ErrNotFound)
	}

	wrapped := fmt.Errorf("%w: %s", ErrUnknownState, "BOGUS")
	assert.ErrorIs(t, wrapped, ErrUnknownState)
	assert.NotErrorIs(t, ErrInvalidPage, ErrUnknownState)
}

func TestStoreError(t *testing.T) {
	assert.Nil(t, NewStoreError("get booking", nil))

	err := NewStoreError("get booking", sql.ErrConnDone)
	assert.True(t, IsStoreError(err))
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Contains(t, err.Error(), "get booking")

	for _, kind := range []error{ErrNotFound, ErrForbidden, ErrInvalidRange, ErrInvalidState, ErrConflict} {
		assert.NotErrorIs(t, err, kind)
	}

	assert.False(t, IsStoreError(ErrNotFound))
	assert.True(t, IsStoreError(fmt.Errorf("create: %w", err)))
	assert.False(t, IsStoreError(errors.New("plain")))
}
