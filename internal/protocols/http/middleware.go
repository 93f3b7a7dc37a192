package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"manganime/internal/core"
	"manganime/pkg/logger"
	"manganime/pkg/models"
)

// AuthMiddleware validates the bearer token and sets the profile in context
func AuthMiddleware(authSvc core.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortFail(c, models.ErrUnauthorized, "")
			return
		}

		profile, err := authSvc.ValidateToken(c.Request.Context(), token)
		if err != nil {
			abortFail(c, models.ErrInvalidToken, "")
			return
		}

		c.Set("user_id", profile.ID)
		c.Set("profile", profile)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the viewer when a token is present but
// lets anonymous requests through untouched.
func OptionalAuthMiddleware(authSvc core.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if profile, err := authSvc.ValidateToken(c.Request.Context(), token); err == nil {
				c.Set("user_id", profile.ID)
				c.Set("profile", profile)
			}
		}
		c.Next()
	}
}

// AdminMiddleware requires the authenticated profile to carry the admin role
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := GetProfile(c)
		if !ok {
			abortFail(c, models.ErrUnauthorized, "")
			return
		}
		if !profile.IsAdmin() {
			abortFail(c, models.ErrForbidden, "")
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetUserID extracts the authenticated user ID from gin context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}

// GetProfile retrieves the full authenticated profile from the context
func GetProfile(c *gin.Context) (*models.Profile, bool) {
	value, exists := c.Get("profile")
	if !exists {
		return nil, false
	}
	profile, ok := value.(*models.Profile)
	return profile, ok
}

// rateLimitMiddleware keeps one token bucket per client IP. Stale buckets
// are swept so the map does not grow without bound.
func rateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	if burst < 1 {
		burst = 1
	}

	type bucket struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}
	var (
		mu      sync.Mutex
		buckets = make(map[string]*bucket)
	)

	go func() {
		for range time.Tick(time.Minute) {
			mu.Lock()
			for ip, b := range buckets {
				if time.Since(b.lastSeen) > 3*time.Minute {
					delete(buckets, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		b, exists := buckets[ip]
		if !exists {
			b = &bucket{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			buckets[ip] = b
		}
		b.lastSeen = time.Now()
		mu.Unlock()

		if !b.limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, models.Fail("rate limit exceeded"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestLogger logs each request through the shared logger
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.HTTP(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), int(time.Since(start).Milliseconds()))
	}
}
