package http

import (
	"strings"
	"time"

	"livequiz-service/internal/domain"
	"livequiz-service/internal/logger"
	"livequiz-service/internal/security"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// requestLogger writes one structured line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// authenticate reads an optional bearer token. A present but invalid token
// is rejected; a missing one leaves the request anonymous.
func authenticate(tokens *security.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.Next()
			return
		}
		id, err := tokens.Parse(raw)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func identityFrom(c *gin.Context) (security.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return security.Identity{}, false
	}
	id, ok := v.(security.Identity)
	return id, ok
}

// requireRole lets the request through only for a token issued for the
// quiz in the :id path parameter with the given role.
func requireRole(role security.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identityFrom(c)
		if !ok {
			writeError(c, domain.ErrUnauthorized)
			return
		}
		if id.Role != role || id.QuizID != quizParam(c) {
			writeError(c, domain.ErrForbidden)
			return
		}
		c.Next()
	}
}

func quizParam(c *gin.Context) string {
	return security.NormalizeRoomCode(c.Param("id"))
}
