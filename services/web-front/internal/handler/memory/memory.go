package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"seungpyo.lee/MemoryJournal/pkg/apperr"
	"seungpyo.lee/MemoryJournal/pkg/datefmt"
	"seungpyo.lee/MemoryJournal/pkg/logger"
	"seungpyo.lee/MemoryJournal/pkg/util"
	"seungpyo.lee/MemoryJournal/services/web-front/internal/adapter"
	"seungpyo.lee/MemoryJournal/services/web-front/internal/config"
	"seungpyo.lee/MemoryJournal/services/web-front/internal/form"
	auth "seungpyo.lee/MemoryJournal/services/web-front/internal/handler/auth"
	"seungpyo.lee/MemoryJournal/services/web-front/internal/listing"
	"seungpyo.lee/MemoryJournal/services/web-front/internal/upload"
)

const listPath = "/memories"

type MemoryHandler struct {
	cfg   *config.WebConfig
	posts *adapter.PostClient
	store upload.Uploader
	log   *logger.Logger
	now   func() time.Time
}

func NewMemoryHandler(cfg *config.WebConfig, posts *adapter.PostClient, store upload.Uploader, log *logger.Logger) *MemoryHandler {
	return &MemoryHandler{cfg: cfg, posts: posts, store: store, log: log, now: time.Now}
}

func (h *MemoryHandler) client(c *gin.Context) *adapter.PostClient {
	return h.posts.WithToken(auth.AccessToken(c))
}

// workflow builds a closed form workflow for the caller. A successful submit
// refreshes the browser onto the listing.
func (h *MemoryHandler) workflow(c *gin.Context) *form.Workflow {
	sess, _ := util.GetSession(c)
	uploads := upload.New(h.store, upload.NewMemoryPreviews(), upload.WithProgress(func(p float64) {
		h.log.Debugf("upload progress %.0f%%", p)
	}))
	return form.New(sess, h.client(c), uploads, func(_ context.Context) error {
		c.Redirect(http.StatusFound, listPath)
		return nil
	})
}

// List handles GET /memories?month=&year=.
func (h *MemoryHandler) List(c *gin.Context) {
	filter, err := listing.ParseFilter(c.Query("month"), c.Query("year"), h.now())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	view := listing.NewView(filter)
	if err := view.Load(c.Request.Context(), h.client(c)); err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, view.Page())
}

// Get handles GET /memories/:id.
func (h *MemoryHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	post, err := h.client(c).GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, listing.CardOf(*post))
}

// Create handles POST /memories.
func (h *MemoryHandler) Create(c *gin.Context) {
	wf := h.workflow(c)
	defer wf.Cancel()
	if err := wf.OpenCreate(); err != nil {
		h.fail(c, err, wf)
		return
	}
	if err := h.fill(c, wf); err != nil {
		h.fail(c, err, wf)
		return
	}
	if err := wf.Submit(c.Request.Context()); err != nil {
		h.fail(c, err, wf)
	}
}

// Update handles POST /memories/:id. Repeated "keep" fields list the existing
// image URLs to retain; without any, every existing image is kept.
func (h *MemoryHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	wf := h.workflow(c)
	defer wf.Cancel()
	if err := wf.OpenEdit(c.Request.Context(), id); err != nil {
		h.fail(c, err, wf)
		return
	}
	if keep, ok := c.GetPostFormArray("keep"); ok {
		kept := make(map[string]bool, len(keep))
		for _, u := range keep {
			kept[u] = true
		}
		for _, u := range wf.Uploads().Existing() {
			if !kept[u] {
				wf.RemoveExistingImage(u)
			}
		}
	}
	if err := h.fill(c, wf); err != nil {
		h.fail(c, err, wf)
		return
	}
	if err := wf.Submit(c.Request.Context()); err != nil {
		h.fail(c, err, wf)
	}
}

// Delete handles POST /memories/:id/delete.
func (h *MemoryHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	if err := h.client(c).Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err, nil)
		return
	}
	c.Redirect(http.StatusFound, listPath)
}

// fill copies the submitted fields and files into wf. Absent fields keep their loaded values.
func (h *MemoryHandler) fill(c *gin.Context, wf *form.Workflow) error {
	if title, ok := c.GetPostForm("title"); ok {
		if err := wf.SetTitle(title); err != nil {
			return err
		}
	}
	if description, ok := c.GetPostForm("description"); ok {
		if err := wf.SetDescription(description); err != nil {
			return err
		}
	}
	if raw, ok := c.GetPostForm("datePosted"); ok {
		if raw == "" {
			if err := wf.ClearDate(); err != nil {
				return err
			}
		} else {
			t, err := datefmt.ParseInput(raw)
			if err != nil {
				return apperr.Invalid("datePosted", "must be a valid date")
			}
			if err := wf.SelectDate(t); err != nil {
				return err
			}
		}
	}
	files, err := formFiles(c)
	if err != nil {
		return err
	}
	if len(files) > 0 {
		return wf.AddFiles(files...)
	}
	return nil
}

func formFiles(c *gin.Context) ([]upload.File, error) {
	mf, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read multipart form: %w", err)
	}
	headers := mf.File["images"]
	files := make([]upload.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		files = append(files, upload.File{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data})
	}
	return files, nil
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Invalid("id", "invalid memory id")
	}
	return uint(id), nil
}

// fail turns err into a transient notice. Auth failures redirect to login.
func (h *MemoryHandler) fail(c *gin.Context, err error, wf *form.Workflow) {
	if errors.Is(err, form.ErrSubmitBlocked) {
		resp := gin.H{"notice": "Please check the highlighted fields.", "kind": string(apperr.KindValidation)}
		if wf != nil {
			resp["errors"] = wf.Errors()
		}
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	kind := apperr.KindOf(err)
	var status int
	switch kind {
	case apperr.KindAuth:
		c.Redirect(http.StatusFound, h.cfg.LoginURL)
		return
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUpload:
		h.log.Warnf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		status = http.StatusBadGateway
	default:
		h.log.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"notice": apperr.Notice(err), "kind": string(kind)})
}
