package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"seungpyo.lee/MemoryJournal/pkg/apperr"
	"seungpyo.lee/MemoryJournal/pkg/jwt"
	"seungpyo.lee/MemoryJournal/pkg/logger"
	"seungpyo.lee/MemoryJournal/pkg/middleware"
	"seungpyo.lee/MemoryJournal/pkg/session"
	"seungpyo.lee/MemoryJournal/pkg/util"
	"seungpyo.lee/MemoryJournal/services/post-service/internal/domain"
	"seungpyo.lee/MemoryJournal/services/post-service/internal/model"
)

// PostHandler handles HTTP requests for memory posts.
type PostHandler struct {
	Service domain.PostService
	Tokens  jwt.TokenManager
	Log     *logger.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service domain.PostService, tokens jwt.TokenManager, log *logger.Logger) *PostHandler {
	return &PostHandler{Service: service, Tokens: tokens, Log: log}
}

// Register mounts the post routes on r.
func (h *PostHandler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/hello", h.Hello)
	r.GET("/posts", h.GetUserPosts)

	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(h.Tokens, func(c *gin.Context, s session.Session) error {
		return h.Service.SyncUser(c.Request.Context(), s)
	}))
	auth.POST("/posts", h.CreatePost)
	auth.GET("/posts/:id", h.GetPost)
	auth.PUT("/posts/:id", h.UpdatePost)
	auth.DELETE("/posts/:id", h.DeletePost)
	auth.DELETE("/session", h.Logout)
}

// CreatePost handles POST /posts.
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req model.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error(), Kind: string(apperr.KindValidation)})
		return
	}
	sess, _ := util.GetSession(c)
	post, err := h.Service.Create(c.Request.Context(), sess, req.ToInput())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// GetPost handles GET /posts/:id.
func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	sess, _ := util.GetSession(c)
	post, err := h.Service.GetByID(c.Request.Context(), sess, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// GetUserPosts handles GET /posts. Lists every post of the shared group.
func (h *PostHandler) GetUserPosts(c *gin.Context) {
	posts, err := h.Service.GetUserPosts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// UpdatePost handles PUT /posts/:id.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req model.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error(), Kind: string(apperr.KindValidation)})
		return
	}
	sess, _ := util.GetSession(c)
	post, err := h.Service.Update(c.Request.Context(), sess, id, req.ToInput())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost handles DELETE /posts/:id.
func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	sess, _ := util.GetSession(c)
	if err := h.Service.Delete(c.Request.Context(), sess, id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Hello handles GET /hello?text=.
func (h *PostHandler) Hello(c *gin.Context) {
	c.JSON(http.StatusOK, model.HelloResponse{Greeting: h.Service.Hello(c.Query("text"))})
}

// Logout handles DELETE /session by revoking the caller's token.
func (h *PostHandler) Logout(c *gin.Context) {
	token, _ := middleware.BearerToken(c)
	if err := h.Tokens.RevokeToken(c.Request.Context(), token); err != nil {
		h.Log.Warnf("failed to revoke session: %v", err)
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: "session revocation unavailable", Kind: string(apperr.KindUnknown)})
		return
	}
	c.Status(http.StatusNoContent)
}

// Health handles GET /health.
func (h *PostHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid id", Kind: string(apperr.KindValidation), Field: "id"})
		return 0, false
	}
	return uint(id), true
}

func (h *PostHandler) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	resp := model.ErrorResponse{Error: err.Error(), Kind: string(kind)}
	var status int
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
		var ve *apperr.ValidationError
		if errors.As(err, &ve) {
			resp.Error = ve.Message
			resp.Field = ve.Field
		}
	case apperr.KindAuth:
		status = http.StatusUnauthorized
	case apperr.KindNotFound:
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
		h.Log.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		resp.Error = "internal server error"
	}
	c.JSON(status, resp)
}
