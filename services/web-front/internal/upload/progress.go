package upload

import (
	"io"
	"sync"
)

// UploadCap is the highest percentage reported before every upload has resolved.
const UploadCap = 90.0

// progress turns bytes read across a batch into a percentage. Files are weighted
// by size; a batch with no bytes at all is weighted by file count.
type progress struct {
	mu      sync.Mutex
	byBytes bool
	total   float64
	done    float64
	percent float64
	report  func(float64)
}

func newProgress(sizes []int64, report func(float64)) *progress {
	p := &progress{report: report}
	for _, s := range sizes {
		p.total += float64(s)
	}
	p.byBytes = p.total > 0
	if !p.byBytes {
		p.total = float64(len(sizes))
	}
	return p
}

// reader wraps r so that reads credit progress for a file of the given size.
func (p *progress) reader(r io.Reader, size int64) *countingReader {
	c := &countingReader{r: r, p: p, weight: 1, bytes: p.byBytes}
	if p.byBytes {
		c.weight = float64(size)
	}
	return c
}

func (p *progress) add(n float64) {
	if n <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done += n
	pct := UploadCap * p.done / p.total
	if pct > UploadCap {
		pct = UploadCap
	}
	if pct > p.percent {
		p.percent = pct
		p.emit(pct)
	}
}

// finish snaps to 100 on success and back to 0 on failure.
func (p *progress) finish(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ok {
		p.percent = 100
	} else {
		p.percent = 0
	}
	p.emit(p.percent)
}

func (p *progress) emit(v float64) {
	if p.report != nil {
		p.report(v)
	}
}

// countingReader credits bytes to progress as the store consumes them,
// never more than the file's weight.
type countingReader struct {
	r        io.Reader
	p        *progress
	weight   float64
	credited float64
	bytes    bool
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	if c.bytes && n > 0 {
		c.credit(float64(n))
	}
	return n, err
}

func (c *countingReader) credit(n float64) {
	if rem := c.weight - c.credited; n > rem {
		n = rem
	}
	c.credited += n
	c.p.add(n)
}

// complete credits whatever the store did not read.
func (c *countingReader) complete() {
	c.credit(c.weight - c.credited)
}
