package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAs_WalksWrappedChain(t *testing.T) {
	base := NotFound("video")
	wrapped := fmt.Errorf("load video: %w", base)

	got := As(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeNotFound, got.Code)
	assert.Equal(t, http.StatusNotFound, got.HTTPStatus)
	assert.True(t, Is(wrapped, CodeNotFound))
	assert.False(t, Is(wrapped, CodeForbidden))
}

func TestAs_PlainError(t *testing.T) {
	assert.Nil(t, As(errors.New("boom")))
	assert.Nil(t, As(nil))
}

func TestVideoPrivate_CarriesFlag(t *testing.T) {
	err := VideoPrivate()
	assert.Equal(t, http.StatusForbidden, err.HTTPStatus)
	assert.Equal(t, CodeVideoPrivate, err.Code)
	assert.Equal(t, true, err.Details["private"])
}

func TestConflictAndCredentials_Are400(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, Conflict("dup").HTTPStatus)
	assert.Equal(t, http.StatusBadRequest, InvalidCredentials().HTTPStatus)
}

func TestStorage_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Storage("delete blob", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
}
