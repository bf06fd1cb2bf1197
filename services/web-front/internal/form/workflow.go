// Package form drives the create and edit lifecycle of one memory post.
package form

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"seungpyo.lee/MemoryJournal/pkg/apperr"
	"seungpyo.lee/MemoryJournal/pkg/datefmt"
	"seungpyo.lee/MemoryJournal/pkg/session"
	"seungpyo.lee/MemoryJournal/services/web-front/internal/adapter"
	"seungpyo.lee/MemoryJournal/services/web-front/internal/upload"
)

const (
	maxTitle       = 380
	maxDescription = 1000
)

// ErrSubmitBlocked is returned by Submit when the form cannot be sent yet.
var ErrSubmitBlocked = errors.New("form is not ready to submit")

type State int

const (
	Closed State = iota
	OpenEmpty
	OpenLoading
	OpenPopulated
	Editing
	Submitting
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case OpenEmpty:
		return "open(empty)"
	case OpenLoading:
		return "open(loading)"
	case OpenPopulated:
		return "open(populated)"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// PostAPI is the subset of the post client the workflow calls.
type PostAPI interface {
	Create(ctx context.Context, in adapter.PostInput) (*adapter.Post, error)
	Update(ctx context.Context, id uint, in adapter.PostInput) (*adapter.Post, error)
	GetByID(ctx context.Context, id uint) (*adapter.Post, error)
}

// Workflow is not safe for concurrent use.
type Workflow struct {
	sess    session.Session
	api     PostAPI
	uploads *upload.Orchestrator
	refresh func(context.Context) error

	state       State
	editID      uint
	hadImages   bool
	title       string
	description string
	date        time.Time
	hasDate     bool
	touched     map[string]bool
	errs        map[string]string
	lastErr     error
}

// New builds a closed workflow for sess. refresh runs after every successful submit.
func New(sess session.Session, api PostAPI, uploads *upload.Orchestrator, refresh func(context.Context) error) *Workflow {
	w := &Workflow{sess: sess, api: api, uploads: uploads, refresh: refresh}
	w.reset()
	return w
}

func (w *Workflow) reset() {
	w.state = Closed
	w.editID = 0
	w.hadImages = false
	w.title, w.description = "", ""
	w.date, w.hasDate = time.Time{}, false
	w.touched = map[string]bool{}
	w.errs = map[string]string{}
	w.lastErr = nil
}

func (w *Workflow) State() State { return w.state }

// Err returns the failure of the last open or submit, if any.
func (w *Workflow) Err() error { return w.lastErr }

// Notice is the user-visible text for Err.
func (w *Workflow) Notice() string { return apperr.Notice(w.lastErr) }

func (w *Workflow) Uploads() *upload.Orchestrator { return w.uploads }

// OpenCreate opens an empty form.
func (w *Workflow) OpenCreate() error {
	if w.state != Closed {
		return fmt.Errorf("cannot open form in state %s", w.state)
	}
	if !w.sess.Authenticated() {
		return apperr.ErrUnauthenticated
	}
	w.state = OpenEmpty
	return nil
}

// OpenEdit loads post id into the form. Existing images become removable
// entries distinct from new files.
func (w *Workflow) OpenEdit(ctx context.Context, id uint) error {
	if w.state != Closed {
		return fmt.Errorf("cannot open form in state %s", w.state)
	}
	if !w.sess.Authenticated() {
		return apperr.ErrUnauthenticated
	}
	w.state = OpenLoading
	w.editID = id
	post, err := w.api.GetByID(ctx, id)
	if err != nil {
		w.reset()
		w.lastErr = err
		return err
	}
	w.title = post.Title
	w.description = post.Description
	if t, err := datefmt.Parse(post.DatePosted); err == nil {
		w.date, w.hasDate = t, true
	}
	w.uploads.SetExisting(post.ImageURLs())
	w.hadImages = len(post.Images) > 0
	w.state = OpenPopulated
	w.validate()
	return nil
}

func (w *Workflow) isOpen() bool {
	switch w.state {
	case OpenEmpty, OpenPopulated, Editing:
		return true
	}
	return false
}

func (w *Workflow) edit(field string) error {
	if !w.isOpen() {
		return fmt.Errorf("cannot edit form in state %s", w.state)
	}
	w.state = Editing
	w.touched[field] = true
	return nil
}

func (w *Workflow) SetTitle(title string) error {
	if err := w.edit("title"); err != nil {
		return err
	}
	w.title = title
	w.validate()
	return nil
}

func (w *Workflow) SetDescription(description string) error {
	if err := w.edit("description"); err != nil {
		return err
	}
	w.description = description
	w.validate()
	return nil
}

// SelectDate sets the posted date. Only the calendar day is kept.
func (w *Workflow) SelectDate(t time.Time) error {
	if err := w.edit("datePosted"); err != nil {
		return err
	}
	w.date = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	w.hasDate = true
	w.validate()
	return nil
}

// ClearDate removes the selected date.
func (w *Workflow) ClearDate() error {
	if err := w.edit("datePosted"); err != nil {
		return err
	}
	w.date, w.hasDate = time.Time{}, false
	w.validate()
	return nil
}

func (w *Workflow) AddFiles(files ...upload.File) error {
	if err := w.edit("images"); err != nil {
		return err
	}
	err := w.uploads.Add(files...)
	w.validate()
	return err
}

func (w *Workflow) RemoveFile(preview string) bool {
	if w.edit("images") != nil {
		return false
	}
	ok := w.uploads.RemovePending(preview)
	w.validate()
	return ok
}

func (w *Workflow) RemoveExistingImage(url string) bool {
	if w.edit("images") != nil {
		return false
	}
	ok := w.uploads.RemoveExisting(url)
	w.validate()
	return ok
}

// Errors returns the current field errors of touched fields.
func (w *Workflow) Errors() map[string]string {
	out := make(map[string]string, len(w.errs))
	for k, v := range w.errs {
		if w.touched[k] || w.state == OpenPopulated {
			out[k] = v
		}
	}
	return out
}

func (w *Workflow) validate() {
	w.errs = map[string]string{}
	if msg := lengthError(w.title, maxTitle); msg != "" {
		w.errs["title"] = msg
	}
	if msg := lengthError(w.description, maxDescription); msg != "" {
		w.errs["description"] = msg
	}
	if !w.hasDate {
		w.errs["datePosted"] = "Please select a date"
	}
	// An update without images keeps the stored set, so an edit may not empty it.
	if w.hadImages && w.uploads.Count() == 0 {
		w.errs["images"] = "Keep at least one image or add a new one"
	}
}

func lengthError(v string, max int) string {
	n := utf8.RuneCountInString(v)
	switch {
	case n == 0:
		return "This field is required"
	case n > max:
		return fmt.Sprintf("Must be at most %d characters", max)
	}
	return ""
}

// CanSubmit reports whether Submit would send the form.
func (w *Workflow) CanSubmit() bool {
	if !w.isOpen() {
		return false
	}
	w.validate()
	return len(w.errs) == 0
}

// Submit uploads pending files and creates or updates the post. A blocked
// submit issues no network calls. On failure the form stays open with its
// fields intact; on success refresh runs and the form closes.
func (w *Workflow) Submit(ctx context.Context) error {
	if !w.CanSubmit() {
		return ErrSubmitBlocked
	}
	w.state = Submitting
	w.lastErr = nil

	images, err := w.uploads.Images(ctx)
	if err != nil {
		return w.fail(err)
	}
	in := adapter.PostInput{
		Title:       w.title,
		Description: w.description,
		DatePosted:  datefmt.Format(w.date),
		CreatedByID: w.sess.UserID,
		Images:      images,
	}
	if w.editID != 0 {
		_, err = w.api.Update(ctx, w.editID, in)
	} else {
		_, err = w.api.Create(ctx, in)
	}
	if err != nil {
		return w.fail(err)
	}

	var refreshErr error
	if w.refresh != nil {
		refreshErr = w.refresh(ctx)
	}
	w.Cancel()
	return refreshErr
}

func (w *Workflow) fail(err error) error {
	w.state = Editing
	w.lastErr = err
	return err
}

// Cancel releases every local preview and closes the form. It never calls the API.
func (w *Workflow) Cancel() {
	w.uploads.Release()
	w.reset()
}
