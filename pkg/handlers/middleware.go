package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/arnavshah/manifest-api-go/pkg/auth"
	"github.com/arnavshah/manifest-api-go/pkg/database"
	"github.com/arnavshah/manifest-api-go/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDKey = "request_id"
	claimsKey    = "claims"
	apiKeyKey    = "apiKey"
)

// RequestID ensures every request has an ID for tracing and logs
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

// GetRequestID extracts request_id from gin context when available
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Logger writes one structured line per request
func Logger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"request_id", GetRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", float64(time.Since(start).Microseconds()) / 1000.0,
			"ip", c.ClientIP(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("HTTP request", fields...)
			return
		}
		log.Debug("HTTP request", fields...)
	}
}

func bearerToken(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	if strings.HasPrefix(token, "Bearer ") {
		token = token[len("Bearer "):]
	}
	return strings.TrimSpace(token)
}

// AuthMiddleware verifies the operator JWT
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "Authorization header required")
			c.Abort()
			return
		}

		claims, err := auth.VerifyToken(token)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "unauthorized", "Invalid token")
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Set("username", claims.Username)
		c.Next()
	}
}

// AdminOnly rejects operators without the admin flag. Must run after
// AuthMiddleware.
func (h *Handler) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(claimsKey)
		claims, _ := v.(*auth.Claims)
		if !ok || claims == nil || !claims.IsAdmin {
			respondError(c, http.StatusForbidden, "forbidden", "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// BoardKeyMiddleware verifies an HMAC board key that an admin has issued and
// enforces its daily request limit
func (h *Handler) BoardKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearerToken(c)
		if key == "" {
			key = c.Query("key")
		}
		if key == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "API Key required")
			c.Abort()
			return
		}

		boardID, err := auth.VerifyHMACKey(key)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "unauthorized", "Invalid API Key signature")
			c.Abort()
			return
		}

		var apiKey database.APIKey
		if err := h.DB.Where("key = ?", key).First(&apiKey).Error; err != nil {
			respondError(c, http.StatusUnauthorized, "unauthorized", "API Key has been revoked")
			c.Abort()
			return
		}

		var usage database.APIUsage
		today := time.Now().Format("2006-01-02")
		if err := h.DB.Where("key_id = ? AND date = ?", apiKey.ID, today).First(&usage).Error; err == nil {
			if apiKey.RateLimit > 0 && usage.RequestCount >= apiKey.RateLimit {
				respondError(c, http.StatusTooManyRequests, "rate_limited", "Daily request limit reached")
				c.Abort()
				return
			}
		}

		now := time.Now()
		h.DB.Model(&apiKey).Update("last_used", &now)

		c.Set(apiKeyKey, &apiKey)
		c.Set("boardID", boardID)
		c.Next()
	}
}
