package websocket

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"manganime/internal/core"
	"manganime/pkg/logger"
	"manganime/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:    1024,
	WriteBufferSize:   1024,
	CheckOrigin:       checkOrigin,
	EnableCompression: true,
}

// Handler upgrades subscriber connections onto the event hub.
type Handler struct {
	hub        *Hub
	contentSvc core.ContentService
}

// NewHandler creates a websocket handler
func NewHandler(hub *Hub, contentSvc core.ContentService) *Handler {
	return &Handler{hub: hub, contentSvc: contentSvc}
}

// Subscribe handles GET /ws/content/:type/:id
func (h *Handler) Subscribe(c *gin.Context) {
	contentType := c.Param("type")
	contentID := c.Param("id")
	if !models.IsValidContentType(contentType) || contentID == "" {
		c.JSON(http.StatusBadRequest, models.Fail("invalid content reference"))
		return
	}

	ctx := c.Request.Context()
	if _, err := h.contentSvc.GetByID(ctx, contentID); err != nil {
		c.JSON(http.StatusNotFound, models.Fail("content not found"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// gorilla/websocket has already written its own HTTP response.
		logger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	h.hub.Subscribe(conn, contentType, contentID)
	logger.WebSocket(roomKey(contentType, contentID), "connected", "")
}

// checkOrigin validates browser origins; non-browser clients omit Origin.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil {
		host := strings.ToLower(u.Hostname())
		if host == "localhost" || host == "127.0.0.1" {
			return true
		}
	}
	return gin.Mode() == gin.DebugMode
}
