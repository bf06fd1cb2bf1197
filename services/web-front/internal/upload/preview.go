package upload

import (
	"sync"

	"github.com/google/uuid"
)

// PreviewStore hands out local preview references for selected files.
type PreviewStore interface {
	Create(f File) (string, error)
	Revoke(ref string)
}

// MemoryPreviews keeps previews in memory under "preview:<uuid>" references.
type MemoryPreviews struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryPreviews() *MemoryPreviews {
	return &MemoryPreviews{data: map[string][]byte{}}
}

func (p *MemoryPreviews) Create(f File) (string, error) {
	ref := "preview:" + uuid.NewString()
	p.mu.Lock()
	p.data[ref] = f.Data
	p.mu.Unlock()
	return ref, nil
}

func (p *MemoryPreviews) Revoke(ref string) {
	p.mu.Lock()
	delete(p.data, ref)
	p.mu.Unlock()
}

// Get returns the bytes behind a live reference.
func (p *MemoryPreviews) Get(ref string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.data[ref]
	return b, ok
}

// Live reports how many references have not been revoked.
func (p *MemoryPreviews) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.data)
}
