package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"manganime/internal/core"
	"manganime/pkg/models"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid input", models.ErrInvalidInput, http.StatusBadRequest, models.ErrCodeValidation},
		{"empty comment", core.ErrEmptyComment, http.StatusBadRequest, models.ErrCodeValidation},
		{"bad parent", core.ErrBadParent, http.StatusBadRequest, models.ErrCodeValidation},
		{"self friend", core.ErrSelfFriend, http.StatusBadRequest, models.ErrCodeValidation},
		{"bad credentials", models.ErrInvalidCredentials, http.StatusUnauthorized, models.ErrCodeUnauthorized},
		{"bad token", models.ErrInvalidToken, http.StatusUnauthorized, models.ErrCodeUnauthorized},
		{"forbidden", models.ErrForbidden, http.StatusForbidden, models.ErrCodeForbidden},
		{"username taken", models.ErrUsernameExists, http.StatusConflict, models.ErrCodeConflict},
		{"already friends", core.ErrAlreadyFriends, http.StatusConflict, models.ErrCodeConflict},
		{"comment missing", models.ErrCommentNotFound, http.StatusNotFound, models.ErrCodeNotFound},
		{"no pending invite", core.ErrNoPendingInvite, http.StatusNotFound, models.ErrCodeNotFound},
		{"generic missing", models.ErrNotFound, http.StatusNotFound, models.ErrCodeNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			appErr := mapError(tc.err, "boom")
			assert.Equal(t, tc.status, appErr.StatusCode)
			assert.Equal(t, tc.code, appErr.Code)
			assert.Equal(t, tc.err.Error(), appErr.Message)
		})
	}
}

func TestMapErrorWrapped(t *testing.T) {
	// Repository wrapping must not leak into the response message.
	wrapped := fmt.Errorf("update_comment: %w", models.ErrCommentNotFound)

	appErr := mapError(wrapped, "could not update comment")

	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	assert.Equal(t, models.ErrCommentNotFound.Error(), appErr.Message)
	assert.Equal(t, wrapped.Error(), appErr.Details["original_error"])
}

func TestMapErrorUnknown(t *testing.T) {
	appErr := mapError(fmt.Errorf("pq: connection reset"), "failed to list comments")

	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	assert.Equal(t, models.ErrCodeInternal, appErr.Code)
	assert.Equal(t, "failed to list comments", appErr.Message)
}
