package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"manganime/pkg/models"
)

// listNotifications handles GET /api/v1/notifications?limit=
// A fetch that misses its budget with no cached list to fall back on is a
// 503, not a 500: the caller should simply retry.
func (s *Server) listNotifications(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		fail(c, models.ErrUnauthorized, "")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	notifications, err := s.notificationSvc.List(c.Request.Context(), userID, limit)
	if err != nil {
		appErr := models.NewHTTPError(models.ErrCodeServiceUnavailable,
			"notifications unavailable, try again", http.StatusServiceUnavailable, err)
		c.JSON(appErr.StatusCode, appErr.ToHTTPError())
		return
	}

	unread, err := s.notificationSvc.CountUnread(c.Request.Context(), userID)
	if err != nil {
		unread = 0
	}
	c.JSON(http.StatusOK, models.OK(gin.H{
		"notifications": notifications,
		"unread_count":  unread,
	}))
}

// markNotificationRead handles PUT /api/v1/notifications/:id/read
func (s *Server) markNotificationRead(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		fail(c, models.ErrUnauthorized, "")
		return
	}

	if err := s.notificationSvc.MarkRead(c.Request.Context(), c.Param("id"), userID); err != nil {
		fail(c, err, "failed to mark notification read")
		return
	}
	c.JSON(http.StatusOK, models.OK(gin.H{"read": true}))
}

// markAllNotificationsRead handles PUT /api/v1/notifications/read-all
func (s *Server) markAllNotificationsRead(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		fail(c, models.ErrUnauthorized, "")
		return
	}

	if err := s.notificationSvc.MarkAllRead(c.Request.Context(), userID); err != nil {
		fail(c, err, "failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, models.OK(gin.H{"read": true}))
}
