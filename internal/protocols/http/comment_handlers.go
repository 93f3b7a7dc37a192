package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"manganime/pkg/models"
)

// listComments handles GET /api/v1/content/:id/comments?type=
// The viewer, when authenticated, gets their own user_has_liked flags.
func (s *Server) listComments(c *gin.Context) {
	contentID := c.Param("id")
	contentType := c.Query("type")
	if !models.IsValidContentType(contentType) {
		c.JSON(http.StatusBadRequest, models.Fail("type query parameter must be one of anime, manga, comics"))
		return
	}

	viewerID, _ := GetUserID(c)

	views, err := s.commentSvc.ListThreaded(c.Request.Context(), contentID, contentType, viewerID)
	if err != nil {
		fail(c, err, "failed to load comments")
		return
	}
	c.JSON(http.StatusOK, models.OK(views))
}

// createComment handles POST /api/v1/content/:id/comments
func (s *Server) createComment(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		fail(c, models.ErrUnauthorized, "")
		return
	}

	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("invalid request body"))
		return
	}
	req.ContentID = c.Param("id")

	view, err := s.commentSvc.Create(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, err, "failed to post comment")
		return
	}
	c.JSON(http.StatusCreated, models.OK(view))
}

// updateComment handles PUT /api/v1/comments/:id
// An ownership mismatch reads the same as a missing row.
func (s *Server) updateComment(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		fail(c, models.ErrUnauthorized, "")
		return
	}

	var req models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("invalid request body"))
		return
	}

	view, err := s.commentSvc.Update(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		fail(c, err, "failed to update comment")
		return
	}
	c.JSON(http.StatusOK, models.OK(view))
}

// deleteComment handles DELETE /api/v1/comments/:id
func (s *Server) deleteComment(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		fail(c, models.ErrUnauthorized, "")
		return
	}

	if err := s.commentSvc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		fail(c, err, "failed to delete comment")
		return
	}
	c.JSON(http.StatusOK, models.OK(gin.H{"deleted": true}))
}

// toggleLike handles POST /api/v1/comments/:id/like
func (s *Server) toggleLike(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		fail(c, models.ErrUnauthorized, "")
		return
	}

	result, err := s.likeSvc.Toggle(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		fail(c, err, "failed to toggle like")
		return
	}
	c.JSON(http.StatusOK, models.OK(result))
}
