package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"seungpyo.lee/MemoryJournal/pkg/jwt"
	"seungpyo.lee/MemoryJournal/pkg/session"
	"seungpyo.lee/MemoryJournal/pkg/util"
)

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// AuthMiddleware returns a Gin middleware that validates session tokens and injects the
// session into the context. onSession, when non-nil, runs once per authenticated request.
func AuthMiddleware(tokenManager jwt.TokenManager, onSession func(c *gin.Context, s session.Session) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header", "kind": "auth"})
			return
		}
		claims, err := tokenManager.ValidateToken(c.Request.Context(), tokenString)
		if errors.Is(err, jwt.ErrRevocationCheck) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to verify session", "kind": "unknown"})
			return
		}
		if err != nil {
			msg := "invalid session token"
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				msg = "session expired"
			case errors.Is(err, jwt.ErrTokenRevoked):
				msg = "session revoked"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "kind": "auth"})
			return
		}
		s := claims.Session()
		if onSession != nil {
			if err := onSession(c, s); err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load session user", "kind": "unknown"})
				return
			}
		}
		util.SetSession(c, s)
		c.Next()
	}
}
