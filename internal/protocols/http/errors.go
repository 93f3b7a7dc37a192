package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"manganime/internal/core"
	"manganime/pkg/models"
)

// errTable maps service sentinels to wire codes and statuses. Order matters:
// the specific not-found sentinels sit above the generic ErrNotFound.
var errTable = []struct {
	target error
	code   string
	status int
}{
	{models.ErrInvalidInput, models.ErrCodeValidation, http.StatusBadRequest},
	{core.ErrEmptyComment, models.ErrCodeValidation, http.StatusBadRequest},
	{core.ErrCommentTooLong, models.ErrCodeValidation, http.StatusBadRequest},
	{core.ErrBadParent, models.ErrCodeValidation, http.StatusBadRequest},
	{core.ErrSelfFriend, models.ErrCodeValidation, http.StatusBadRequest},

	{models.ErrInvalidCredentials, models.ErrCodeUnauthorized, http.StatusUnauthorized},
	{models.ErrInvalidToken, models.ErrCodeUnauthorized, http.StatusUnauthorized},
	{models.ErrUnauthorized, models.ErrCodeUnauthorized, http.StatusUnauthorized},

	{models.ErrForbidden, models.ErrCodeForbidden, http.StatusForbidden},

	{models.ErrUsernameExists, models.ErrCodeConflict, http.StatusConflict},
	{core.ErrAlreadyFriends, models.ErrCodeConflict, http.StatusConflict},
	{models.ErrDuplicate, models.ErrCodeConflict, http.StatusConflict},

	{models.ErrCommentNotFound, models.ErrCodeNotFound, http.StatusNotFound},
	{models.ErrContentNotFound, models.ErrCodeNotFound, http.StatusNotFound},
	{models.ErrUserNotFound, models.ErrCodeNotFound, http.StatusNotFound},
	{core.ErrNoPendingInvite, models.ErrCodeNotFound, http.StatusNotFound},
	{models.ErrNotFound, models.ErrCodeNotFound, http.StatusNotFound},
}

// mapError converts a service error to the AppError carried on the wire.
// The response message is the matched sentinel's text; the original error
// rides along in the details, never in the body of an unmatched 500, so
// store internals do not leak into responses.
func mapError(err error, fallback string) *models.AppError {
	for _, e := range errTable {
		if errors.Is(err, e.target) {
			return models.NewHTTPError(e.code, e.target.Error(), e.status, err)
		}
	}
	return models.NewHTTPError(models.ErrCodeInternal, fallback, http.StatusInternalServerError, err)
}

// fail writes the mapped error envelope for a handler.
func fail(c *gin.Context, err error, fallback string) {
	appErr := mapError(err, fallback)
	c.JSON(appErr.StatusCode, appErr.ToHTTPError())
}

// abortFail is fail for middleware: it also stops the handler chain.
func abortFail(c *gin.Context, err error, fallback string) {
	appErr := mapError(err, fallback)
	c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToHTTPError())
}
