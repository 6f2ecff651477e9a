package store_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/easycomment/easycomment-server/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	assert.Equal(t, "Instance not found", store.ErrInstanceNotFound.Error())
}

func TestError_ErrorWithCause(t *testing.T) {
	err := store.ErrCommentNotFound.WithCause(errors.New("cmt-123"))

	assert.Contains(t, err.Error(), "Comment not found")
	assert.Contains(t, err.Error(), "cmt-123")
}

func TestError_HTTPCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, store.ErrInstanceNotFound.HTTPCode())
	assert.Equal(t, http.StatusNotFound, store.ErrCommentNotFound.HTTPCode())
}

func TestError_IsMatchesWrappedCopies(t *testing.T) {
	err := store.ErrInstanceNotFound.WithCause(errors.New("inst-x"))

	assert.ErrorIs(t, err, store.ErrInstanceNotFound)
	assert.NotErrorIs(t, err, store.ErrCommentNotFound)
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := &store.Error{
		Code:    http.StatusInternalServerError,
		Message: "error",
		Err:     cause,
	}

	assert.Equal(t, cause, err.Unwrap())
}
