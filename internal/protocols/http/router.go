// Package http - REST API surface over the core services.
package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"manganime/internal/core"
	"manganime/internal/protocols/websocket"
	"manganime/pkg/config"
	"manganime/pkg/database"
)

// Server manages the HTTP REST API server
type Server struct {
	router          *gin.Engine
	config          *config.Config
	authSvc         core.AuthService
	commentSvc      core.CommentService
	likeSvc         core.LikeService
	notificationSvc core.NotificationService
	librarySvc      core.LibraryService
	contentSvc      core.ContentService
	friendSvc       core.FriendService
	wsHandler       *websocket.Handler
	db              *database.DB
}

// NewServer creates the HTTP server with all handlers wired
func NewServer(
	cfg *config.Config,
	authSvc core.AuthService,
	commentSvc core.CommentService,
	likeSvc core.LikeService,
	notificationSvc core.NotificationService,
	librarySvc core.LibraryService,
	contentSvc core.ContentService,
	friendSvc core.FriendService,
	wsHandler *websocket.Handler,
	db *database.DB,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(requestLogger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	if cfg.RateLimit.RPS > 0 {
		router.Use(rateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	s := &Server{
		router:          router,
		config:          cfg,
		authSvc:         authSvc,
		commentSvc:      commentSvc,
		likeSvc:         likeSvc,
		notificationSvc: notificationSvc,
		librarySvc:      librarySvc,
		contentSvc:      contentSvc,
		friendSvc:       friendSvc,
		wsHandler:       wsHandler,
		db:              db,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	if s.wsHandler != nil {
		s.router.GET("/ws/content/:type/:id", s.wsHandler.Subscribe)
	}

	v1 := s.router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", s.register)
			auth.POST("/login", s.login)
		}

		// Public catalog and comment reads. The comment listing picks up the
		// viewer from an optional bearer token so user_has_liked is personal.
		v1.GET("/content", s.searchContent)
		v1.GET("/content/:id", s.getContent)
		v1.GET("/content/:id/comments", OptionalAuthMiddleware(s.authSvc), s.listComments)

		admin := v1.Group("", AuthMiddleware(s.authSvc), AdminMiddleware())
		{
			admin.POST("/content", s.createContent)
			admin.POST("/content/:id/episodes", s.addEpisode)
		}

		protected := v1.Group("", AuthMiddleware(s.authSvc))
		{
			protected.GET("/users/me/admin", s.adminCheck)

			protected.POST("/content/:id/comments", s.createComment)
			protected.PUT("/comments/:id", s.updateComment)
			protected.DELETE("/comments/:id", s.deleteComment)
			protected.POST("/comments/:id/like", s.toggleLike)

			protected.GET("/notifications", s.listNotifications)
			protected.PUT("/notifications/:id/read", s.markNotificationRead)
			protected.PUT("/notifications/read-all", s.markAllNotificationsRead)

			protected.GET("/users/library", s.listLibrary)
			protected.PUT("/users/library", s.upsertLibraryItem)
			protected.DELETE("/users/library/:type/:id", s.deleteLibraryItem)

			protected.POST("/friends/:id", s.requestFriend)
			protected.PUT("/friends/:id/accept", s.acceptFriend)
			protected.GET("/friends", s.listFriends)
		}
	}
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

// Router returns the gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// healthCheck reports server and database health
func (s *Server) healthCheck(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"
	if s.db != nil {
		if err := s.db.HealthCheck(c.Request.Context()); err != nil {
			status = "degraded"
			dbStatus = err.Error()
		}
	}
	c.JSON(200, gin.H{
		"status":   status,
		"database": dbStatus,
		"time":     time.Now().Format(time.RFC3339),
	})
}
