package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"manganime/pkg/models"
)

// register handles POST /api/v1/auth/register
func (s *Server) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("invalid request body"))
		return
	}

	profile, err := s.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err, "registration failed")
		return
	}
	c.JSON(http.StatusCreated, models.OK(profile.Public()))
}

// login handles POST /api/v1/auth/login
func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("invalid request body"))
		return
	}

	resp, err := s.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err, "login failed")
		return
	}
	c.JSON(http.StatusOK, models.OK(resp))
}

// adminCheck handles GET /api/v1/users/me/admin
func (s *Server) adminCheck(c *gin.Context) {
	profile, ok := GetProfile(c)
	if !ok {
		fail(c, models.ErrUnauthorized, "")
		return
	}
	c.JSON(http.StatusOK, models.AdminCheckResponse{IsAdmin: profile.IsAdmin()})
}
