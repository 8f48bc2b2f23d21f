package errors_test

import (
	"fmt"
	"testing"

	"codeberg.org/mutker/kitchenctl/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	errFactory := errors.New()

	assert.Equal(t, "Not found", errFactory.New(errors.ErrNotFound).Error())
	assert.Equal(t, "Invalid input: empty name",
		errFactory.WithData(errors.ErrInvalidInput, "empty name").Error())
	assert.Equal(t, "boom", errFactory.WithMessage(errors.ErrInternal, "boom").Error())
}

func TestHasCodeWalksChain(t *testing.T) {
	errFactory := errors.New()
	inner := errFactory.New(errors.ErrNotFound)
	outer := errFactory.Wrap(errors.ErrInvalidState, inner)
	wrapped := fmt.Errorf("context: %w", outer)

	assert.True(t, errors.HasCode(wrapped, errors.ErrInvalidState))
	assert.True(t, errors.HasCode(wrapped, errors.ErrNotFound))
	assert.False(t, errors.HasCode(wrapped, errors.ErrInvalidInput))
	assert.False(t, errors.HasCode(nil, errors.ErrNotFound))
	assert.Equal(t, errors.ErrInvalidState, errors.CodeOf(wrapped))
	assert.Equal(t, errors.ErrInternal, errors.CodeOf(fmt.Errorf("plain")))
}
