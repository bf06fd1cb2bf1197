// Package upload manages the images selected for one post form: validation,
// local previews, concurrent transfer to object storage and progress.
package upload

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
	"seungpyo.lee/MemoryJournal/pkg/apperr"
)

// MaxImages bounds existing plus pending images on one post.
const MaxImages = 4

// File is a locally selected file. ContentType is only consulted when Data is empty.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader stores one object and returns its public URL. Upload is called
// concurrently, once per pending file.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, size int64, body io.Reader) (string, error)
}

// Pending is an accepted file waiting to be uploaded.
type Pending struct {
	File    File
	MIME    string
	Preview string
}

type Option func(*Orchestrator)

// WithProgress registers fn to receive progress percentages. fn runs while
// internal locks are held and must not call back into the Orchestrator.
func WithProgress(fn func(percent float64)) Option {
	return func(o *Orchestrator) { o.onProgress = fn }
}

type Orchestrator struct {
	mu         sync.Mutex
	store      Uploader
	previews   PreviewStore
	existing   []string
	pending    []Pending
	percent    float64
	onProgress func(float64)
}

func New(store Uploader, previews PreviewStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{store: store, previews: previews}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetExisting replaces the already-stored image URLs of the post being edited.
func (o *Orchestrator) SetExisting(urls []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.existing = append([]string(nil), urls...)
}

// Add accepts a batch of files. The whole batch is rejected, leaving state
// untouched, if any file is not an image or the total would exceed MaxImages.
func (o *Orchestrator) Add(files ...File) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if total := len(o.existing) + len(o.pending) + len(files); total > MaxImages {
		return apperr.Invalid("images", "you can attach at most %d images", MaxImages)
	}
	accepted := make([]Pending, 0, len(files))
	for _, f := range files {
		mime := detect(f)
		if !strings.HasPrefix(mime, "image/") {
			return apperr.Invalid("images", "%s is not an image", f.Name)
		}
		accepted = append(accepted, Pending{File: f, MIME: mime})
	}
	for i := range accepted {
		ref, err := o.previews.Create(accepted[i].File)
		if err != nil {
			for _, p := range accepted[:i] {
				o.previews.Revoke(p.Preview)
			}
			return err
		}
		accepted[i].Preview = ref
	}
	o.pending = append(o.pending, accepted...)
	return nil
}

func detect(f File) string {
	if len(f.Data) == 0 {
		return f.ContentType
	}
	return mimetype.Detect(f.Data).String()
}

// RemovePending drops a pending file by its preview reference and revokes the preview.
func (o *Orchestrator) RemovePending(preview string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, p := range o.pending {
		if p.Preview == preview {
			o.previews.Revoke(p.Preview)
			o.pending = append(o.pending[:i], o.pending[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveExisting drops an already-stored image from the submitted set.
func (o *Orchestrator) RemoveExisting(url string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, u := range o.existing {
		if u == url {
			o.existing = append(o.existing[:i], o.existing[i+1:]...)
			return true
		}
	}
	return false
}

func (o *Orchestrator) Existing() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.existing...)
}

func (o *Orchestrator) Pending() []Pending {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Pending(nil), o.pending...)
}

// Count is existing plus pending images.
func (o *Orchestrator) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.existing) + len(o.pending)
}

// Progress returns the last reported percentage.
func (o *Orchestrator) Progress() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.percent
}

func (o *Orchestrator) setPercent(v float64) {
	o.mu.Lock()
	o.percent = v
	fn := o.onProgress
	o.mu.Unlock()
	if fn != nil {
		fn(v)
	}
}

// Upload sends every pending file concurrently and returns their URLs in
// selection order. If any transfer fails the result is an *apperr.UploadError,
// pending files stay selected and progress drops back to 0.
func (o *Orchestrator) Upload(ctx context.Context) ([]string, error) {
	batch := o.Pending()
	if len(batch) == 0 {
		return []string{}, nil
	}
	sizes := make([]int64, len(batch))
	for i, p := range batch {
		sizes[i] = int64(len(p.File.Data))
	}
	prog := newProgress(sizes, o.setPercent)
	o.setPercent(0)

	urls := make([]string, len(batch))
	var g errgroup.Group
	for i, p := range batch {
		g.Go(func() error {
			body := prog.reader(bytes.NewReader(p.File.Data), sizes[i])
			url, err := o.store.Upload(ctx, p.File.Name, p.MIME, sizes[i], body)
			if err != nil {
				return &apperr.UploadError{File: p.File.Name, Err: err}
			}
			body.complete()
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		prog.finish(false)
		return nil, err
	}
	prog.finish(true)
	return urls, nil
}

// Images uploads pending files and returns the full replacement set:
// existing URLs first, then the new ones.
func (o *Orchestrator) Images(ctx context.Context) ([]string, error) {
	uploaded, err := o.Upload(ctx)
	if err != nil {
		return nil, err
	}
	return append(o.Existing(), uploaded...), nil
}

// Release revokes every preview and forgets all selections.
func (o *Orchestrator) Release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, p := range o.pending {
		o.previews.Revoke(p.Preview)
	}
	o.pending = nil
	o.existing = nil
	o.percent = 0
}
