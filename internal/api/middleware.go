package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"subtrack/internal/auth"
	"subtrack/internal/security"
)

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range s.cfg.CORSOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		clientIP := c.ClientIP()

		s.log.Info("http_request",
			"method", method,
			"path", path,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"client_ip", clientIP,
		)
	}
}

// authMiddleware resolves the caller's external id from the session token
// and stashes it in the request context. Every failure mode is the same 401.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "unauthorized", "message": "missing session token"}})
			c.Abort()
			return
		}

		clerkID, err := s.auth.Verify(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrUnauthenticated) {
				s.log.Warn("auth_verify_error", "error", err)
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "unauthorized", "message": "invalid session token"}})
			c.Abort()
			return
		}

		c.Set("clerk_id", clerkID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := strings.TrimSpace(c.GetHeader("Authorization")); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	// the browser client sends the session as a cookie
	if cookie, err := c.Cookie("__session"); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cache == nil {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		path := c.Request.URL.Path

		// different limits per endpoint class
		var limit int64 = 120 // default: 120 req/min
		window := 1 * time.Minute

		if strings.HasPrefix(path, "/api/v1/dashboard") || path == "/dashboard/stats" {
			limit = 60
		}

		// sliding window over a redis sorted set
		now := time.Now().UnixNano()
		windowNanos := window.Nanoseconds()
		key := fmt.Sprintf("ratelimit:sw:%s:%s", clientIP, path)

		ctx := c.Request.Context()

		oldest := now - windowNanos
		_ = s.cache.RDB().ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", oldest)).Err()

		count, err := s.cache.RDB().ZCard(ctx, key).Result()
		if err != nil {
			// fail open: limiting is protection, not correctness
			s.log.Warn("rate_limit_error", "error", err)
			c.Next()
			return
		}

		if count >= limit {
			oldestReq, _ := s.cache.RDB().ZRangeWithScores(ctx, key, 0, 0).Result()
			retryAfter := int64(window.Seconds())
			if len(oldestReq) > 0 {
				retryAfter = (windowNanos - (now - int64(oldestReq[0].Score))) / int64(time.Second)
				if retryAfter < 0 {
					retryAfter = 0
				}
			}

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "too many requests",
				},
			})
			c.Abort()
			return
		}

		_ = s.cache.RDB().ZAdd(ctx, key, goredis.Z{
			Score:  float64(now),
			Member: fmt.Sprintf("%d", now),
		}).Err()
		_ = s.cache.RDB().Expire(ctx, key, window).Err()

		c.Next()
	}
}

// webhookRateLimit guards the signature-gated webhook route with an
// in-process per-IP token bucket; it has no caller identity to key on.
func (s *Server) webhookRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.hookLim.Allow(security.ClientIPFromRequest(c.Request)) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "too many requests",
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
