package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"manganime/pkg/models"
)

// listLibrary handles GET /api/v1/users/library
func (s *Server) listLibrary(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		fail(c, models.ErrUnauthorized, "")
		return
	}

	items, err := s.librarySvc.List(c.Request.Context(), userID)
	if err != nil {
		fail(c, err, "failed to load library")
		return
	}
	c.JSON(http.StatusOK, models.OK(items))
}

// upsertLibraryItem handles PUT /api/v1/users/library
func (s *Server) upsertLibraryItem(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		fail(c, models.ErrUnauthorized, "")
		return
	}

	var item models.LibraryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("invalid request body"))
		return
	}

	saved, err := s.librarySvc.Upsert(c.Request.Context(), userID, item)
	if err != nil {
		fail(c, err, "failed to save library item")
		return
	}
	c.JSON(http.StatusOK, models.OK(saved))
}

// deleteLibraryItem handles DELETE /api/v1/users/library/:type/:id
func (s *Server) deleteLibraryItem(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		fail(c, models.ErrUnauthorized, "")
		return
	}

	if err := s.librarySvc.Delete(c.Request.Context(), userID, c.Param("id"), c.Param("type")); err != nil {
		fail(c, err, "failed to remove library item")
		return
	}
	c.JSON(http.StatusOK, models.OK(gin.H{"deleted": true}))
}
