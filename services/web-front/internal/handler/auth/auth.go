package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"seungpyo.lee/MemoryJournal/pkg/jwt"
	"seungpyo.lee/MemoryJournal/pkg/logger"
	"seungpyo.lee/MemoryJournal/pkg/util"
	"seungpyo.lee/MemoryJournal/services/web-front/internal/adapter"
	"seungpyo.lee/MemoryJournal/services/web-front/internal/config"
)

const (
	accessTokenCookie = "access_token"
	accessTokenKey    = "access_token"
)

type AuthHandler interface {
	RequireSession() gin.HandlerFunc
	Logout(c *gin.Context)
}

type authHandler struct {
	cfg    *config.WebConfig
	tokens jwt.TokenManager
	posts  *adapter.PostClient
	log    *logger.Logger
}

func NewAuthHandler(cfg *config.WebConfig, tokens jwt.TokenManager, posts *adapter.PostClient, log *logger.Logger) AuthHandler {
	return &authHandler{cfg: cfg, tokens: tokens, posts: posts, log: log}
}

// AccessToken returns the session token accepted by RequireSession.
func AccessToken(c *gin.Context) string {
	return c.GetString(accessTokenKey)
}

// RequireSession validates the access_token cookie and stores the session.
// Without a valid session the browser is sent to the login page.
func (h *authHandler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(accessTokenCookie)
		if err != nil || token == "" {
			c.Redirect(http.StatusFound, h.cfg.LoginURL)
			c.Abort()
			return
		}
		claims, err := h.tokens.ValidateToken(c.Request.Context(), token)
		if err != nil {
			h.log.Debugf("rejecting session: %v", err)
			c.SetCookie(accessTokenCookie, "", -1, "/", "", false, true)
			c.Redirect(http.StatusFound, h.cfg.LoginURL)
			c.Abort()
			return
		}
		util.SetSession(c, claims.Session())
		c.Set(accessTokenKey, token)
		c.Next()
	}
}

func (h *authHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(accessTokenCookie); err == nil && token != "" {
		if err := h.posts.WithToken(token).Logout(c.Request.Context()); err != nil {
			h.log.Warnf("failed to revoke session: %v", err)
		}
	}
	c.SetCookie(accessTokenCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}
