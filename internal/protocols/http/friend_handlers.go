package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"manganime/pkg/models"
)

// requestFriend handles POST /api/v1/friends/:id
func (s *Server) requestFriend(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		fail(c, models.ErrUnauthorized, "")
		return
	}

	friend, err := s.friendSvc.Request(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		fail(c, err, "failed to send friend request")
		return
	}
	c.JSON(http.StatusCreated, models.OK(friend))
}

// acceptFriend handles PUT /api/v1/friends/:id/accept
func (s *Server) acceptFriend(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		fail(c, models.ErrUnauthorized, "")
		return
	}

	friend, err := s.friendSvc.Accept(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		fail(c, err, "failed to accept friend request")
		return
	}
	c.JSON(http.StatusOK, models.OK(friend))
}

// listFriends handles GET /api/v1/friends?status=
func (s *Server) listFriends(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		fail(c, models.ErrUnauthorized, "")
		return
	}

	status := models.FriendStatus(c.DefaultQuery("status", string(models.FriendAccepted)))
	if status != models.FriendAccepted && status != models.FriendPending {
		c.JSON(http.StatusBadRequest, models.Fail("status must be accepted or pending"))
		return
	}

	views, err := s.friendSvc.List(c.Request.Context(), userID, status)
	if err != nil {
		fail(c, err, "failed to load friends")
		return
	}
	c.JSON(http.StatusOK, models.OK(views))
}
