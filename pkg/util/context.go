package util

import (
	"github.com/gin-gonic/gin"
	"seungpyo.lee/MemoryJournal/pkg/session"
)

const sessionKey = "session"

// SetSession stores the caller's session on the gin context and its request context.
func SetSession(c *gin.Context, s session.Session) {
	c.Set(sessionKey, s)
	c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), s))
}

// GetSession returns the session stored by SetSession.
func GetSession(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return session.Session{}, false
	}
	s, ok := v.(session.Session)
	return s, ok && s.Authenticated()
}

// GetUserID extracts the session user id.
func GetUserID(c *gin.Context) (string, bool) {
	s, ok := GetSession(c)
	return s.UserID, ok
}

// GetUsername extracts the session display name.
func GetUsername(c *gin.Context) (string, bool) {
	s, ok := GetSession(c)
	if !ok || s.Name == "" {
		return "", false
	}
	return s.Name, true
}
