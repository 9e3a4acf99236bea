package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
	assert.False(t, meta.DetailsAllowed)
}

func TestForbiddenHidesDetails(t *testing.T) {
	meta := MetadataFor(CodeForbidden)
	assert.Equal(t, http.StatusForbidden, meta.HTTPStatus)
	assert.False(t, meta.DetailsAllowed)
}

func TestAsFindsWrappedError(t *testing.T) {
	base := NotFound("order not found").WithDetails(map[string]string{"id": "o-1"})
	wrapped := fmt.Errorf("loading order: %w", base)

	typed := As(wrapped)
	if assert.NotNil(t, typed) {
		assert.Equal(t, CodeNotFound, typed.Code())
		assert.Equal(t, "order not found", typed.Message())
		assert.Equal(t, map[string]string{"id": "o-1"}, typed.Details())
	}
	assert.True(t, Is(wrapped, CodeNotFound))
	assert.False(t, Is(wrapped, CodeValidation))
}

func TestCodeOfUntypedError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Nil(t, As(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("db down")
	err := Internal(cause, "failed to save order")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "db down")
}
