package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"seungpyo.lee/MemoryJournal/pkg/apperr"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func png(name string, size int) File {
	data := make([]byte, size)
	copy(data, pngHeader)
	return File{Name: name, ContentType: "image/png", Data: data}
}

type fakeStore struct {
	mu     sync.Mutex
	fail   map[string]bool
	delays map[string]time.Duration
	calls  []string
}

func (f *fakeStore) Upload(_ context.Context, name, contentType string, _ int64, body io.Reader) (string, error) {
	if d := f.delays[name]; d > 0 {
		time.Sleep(d)
	}
	buf := make([]byte, 64)
	for {
		if _, err := body.Read(buf); err != nil {
			break
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	if f.fail[name] {
		return "", errors.New("connection reset")
	}
	return fmt.Sprintf("https://bucket.s3.us-east-1.amazonaws.com/1-%s", name), nil
}

func TestAddRejectsFifthImageWithoutMutating(t *testing.T) {
	previews := NewMemoryPreviews()
	o := New(&fakeStore{}, previews)
	o.SetExisting([]string{"https://x/1.png"})
	if err := o.Add(png("a.png", 32), png("b.png", 32), png("c.png", 32)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	before := o.Pending()

	err := o.Add(png("d.png", 32))
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
	if o.Count() != MaxImages {
		t.Fatalf("count = %d", o.Count())
	}
	after := o.Pending()
	if len(after) != len(before) || previews.Live() != 3 {
		t.Fatalf("state mutated: %d pending, %d previews", len(after), previews.Live())
	}
}

func TestAddBatchOverLimitIsRejectedWhole(t *testing.T) {
	previews := NewMemoryPreviews()
	o := New(&fakeStore{}, previews)
	files := []File{png("a.png", 16), png("b.png", 16), png("c.png", 16), png("d.png", 16), png("e.png", 16)}
	if err := o.Add(files...); err == nil {
		t.Fatal("expected rejection")
	}
	if o.Count() != 0 || previews.Live() != 0 {
		t.Fatalf("partial batch accepted: count=%d previews=%d", o.Count(), previews.Live())
	}
}

func TestAddRejectsNonImagesBySniffing(t *testing.T) {
	previews := NewMemoryPreviews()
	o := New(&fakeStore{}, previews)
	disguised := File{Name: "notes.png", ContentType: "image/png", Data: []byte("just some text, not pixels")}
	if err := o.Add(png("a.png", 16), disguised); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
	if o.Count() != 0 || previews.Live() != 0 {
		t.Fatal("batch with a non-image was partially accepted")
	}
}

func TestRemovePendingRevokesPreview(t *testing.T) {
	previews := NewMemoryPreviews()
	o := New(&fakeStore{}, previews)
	if err := o.Add(png("a.png", 16), png("b.png", 16)); err != nil {
		t.Fatal(err)
	}
	ref := o.Pending()[0].Preview
	if _, ok := previews.Get(ref); !ok {
		t.Fatal("preview missing")
	}
	if !o.RemovePending(ref) {
		t.Fatal("RemovePending returned false")
	}
	if _, ok := previews.Get(ref); ok || previews.Live() != 1 {
		t.Fatalf("preview not revoked, live=%d", previews.Live())
	}
	if o.RemovePending(ref) {
		t.Fatal("removing twice should report false")
	}
}

func TestUploadPreservesSelectionOrder(t *testing.T) {
	store := &fakeStore{delays: map[string]time.Duration{"a.png": 30 * time.Millisecond, "b.png": 10 * time.Millisecond}}
	o := New(store, NewMemoryPreviews())
	if err := o.Add(png("a.png", 100), png("b.png", 100), png("c.png", 100)); err != nil {
		t.Fatal(err)
	}
	urls, err := o.Upload(context.Background())
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	for i, name := range []string{"a.png", "b.png", "c.png"} {
		if want := "https://bucket.s3.us-east-1.amazonaws.com/1-" + name; urls[i] != want {
			t.Fatalf("urls[%d] = %q, want %q", i, urls[i], want)
		}
	}
}

func TestUploadFailureKeepsStateAndResetsProgress(t *testing.T) {
	store := &fakeStore{fail: map[string]bool{"b.png": true}}
	previews := NewMemoryPreviews()
	var last float64
	o := New(store, previews, WithProgress(func(p float64) { last = p }))
	if err := o.Add(png("a.png", 100), png("b.png", 100)); err != nil {
		t.Fatal(err)
	}
	_, err := o.Upload(context.Background())
	var uploadErr *apperr.UploadError
	if !errors.As(err, &uploadErr) || uploadErr.File != "b.png" {
		t.Fatalf("err = %v, want UploadError for b.png", err)
	}
	if len(o.Pending()) != 2 || previews.Live() != 2 {
		t.Fatal("pending files were discarded after a failed upload")
	}
	if last != 0 || o.Progress() != 0 {
		t.Fatalf("progress = %v/%v, want 0", last, o.Progress())
	}
}

func TestProgressIsMonotonicAndCapped(t *testing.T) {
	var mu sync.Mutex
	var seen []float64
	o := New(&fakeStore{}, NewMemoryPreviews(), WithProgress(func(p float64) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	}))
	if err := o.Add(png("a.png", 1000), png("b.png", 300), png("c.png", 10)); err != nil {
		t.Fatal(err)
	}
	if _, err := o.Upload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(seen) < 3 {
		t.Fatalf("too few progress reports: %v", seen)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("progress decreased: %v", seen)
		}
	}
	for _, p := range seen[:len(seen)-1] {
		if p > UploadCap {
			t.Fatalf("progress exceeded cap before completion: %v", seen)
		}
	}
	if seen[len(seen)-1] != 100 {
		t.Fatalf("final progress = %v", seen[len(seen)-1])
	}
}

func TestImagesIsExistingThenUploaded(t *testing.T) {
	o := New(&fakeStore{}, NewMemoryPreviews())
	o.SetExisting([]string{"https://x/old-1.png", "https://x/old-2.png"})
	if !o.RemoveExisting("https://x/old-1.png") {
		t.Fatal("RemoveExisting returned false")
	}
	if err := o.Add(png("new.png", 64)); err != nil {
		t.Fatal(err)
	}
	got, err := o.Images(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"https://x/old-2.png", "https://bucket.s3.us-east-1.amazonaws.com/1-new.png"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Images = %v, want %v", got, want)
	}
}

func TestReleaseRevokesEverything(t *testing.T) {
	previews := NewMemoryPreviews()
	o := New(&fakeStore{}, previews)
	if err := o.Add(png("a.png", 16), png("b.png", 16)); err != nil {
		t.Fatal(err)
	}
	o.Release()
	if previews.Live() != 0 || o.Count() != 0 {
		t.Fatalf("live=%d count=%d", previews.Live(), o.Count())
	}
}

func TestZeroByteFilesWeightedByCount(t *testing.T) {
	p := newProgress([]int64{0, 0}, nil)
	r := p.reader(bytes.NewReader(nil), 0)
	r.complete()
	if p.percent != UploadCap/2 {
		t.Fatalf("percent = %v, want %v", p.percent, UploadCap/2)
	}
}
