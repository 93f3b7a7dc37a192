package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"manganime/pkg/models"
)

// searchContent handles GET /api/v1/content?query=&type=&limit=&offset=
func (s *Server) searchContent(c *gin.Context) {
	var req models.ContentSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("invalid search parameters"))
		return
	}

	resp, err := s.contentSvc.Search(c.Request.Context(), req)
	if err != nil {
		fail(c, err, "search failed")
		return
	}
	c.JSON(http.StatusOK, models.OK(resp))
}

// getContent handles GET /api/v1/content/:id
func (s *Server) getContent(c *gin.Context) {
	content, err := s.contentSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, "failed to load content")
		return
	}
	c.JSON(http.StatusOK, models.OK(content))
}

// createContent handles POST /api/v1/content (admin)
func (s *Server) createContent(c *gin.Context) {
	var req models.CreateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("invalid request body"))
		return
	}

	content, err := s.contentSvc.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err, "failed to create content")
		return
	}
	c.JSON(http.StatusCreated, models.OK(content))
}

// addEpisode handles POST /api/v1/content/:id/episodes (admin)
func (s *Server) addEpisode(c *gin.Context) {
	var req models.AddEpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("invalid request body"))
		return
	}

	content, err := s.contentSvc.AddEpisode(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err, "failed to add episode")
		return
	}
	c.JSON(http.StatusOK, models.OK(content))
}
