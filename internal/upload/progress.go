package upload

import (
	"io"
	"sync"

	"aula-lms/internal/domain"
)

// ProgressFunc receives byte-level progress.
type ProgressFunc func(domain.UploadProgress)

// ProgressReader counts bytes read through it and reports whenever the
// whole-percent value moves, and once more at EOF. It never sets Done; the
// caller does once the receiving side has accepted the file.
type ProgressReader struct {
	r        io.Reader
	uploadID string
	total    int64
	fn       ProgressFunc

	mu       sync.Mutex
	loaded   int64
	reported int
	done     bool
}

// NewProgressReader wraps r. total may be zero when unknown; percent then
// stays at zero until EOF.
func NewProgressReader(r io.Reader, uploadID string, total int64, fn ProgressFunc) *ProgressReader {
	return &ProgressReader{r: r, uploadID: uploadID, total: total, fn: fn, reported: -1}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)

	p.mu.Lock()
	p.loaded += int64(n)
	ev, send := p.eventLocked(err == io.EOF)
	p.mu.Unlock()

	if send && p.fn != nil {
		p.fn(ev)
	}
	return n, err
}

// Loaded returns the bytes read so far.
func (p *ProgressReader) Loaded() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

func (p *ProgressReader) eventLocked(eof bool) (domain.UploadProgress, bool) {
	if p.done {
		return domain.UploadProgress{}, false
	}

	percent := 0.0
	if p.total > 0 {
		percent = float64(p.loaded) / float64(p.total) * 100
		if percent > 100 {
			percent = 100
		}
	}
	if eof {
		p.done = true
		percent = 100
	}

	whole := int(percent)
	if whole == p.reported && !eof {
		return domain.UploadProgress{}, false
	}
	p.reported = whole

	return domain.UploadProgress{
		UploadID: p.uploadID,
		Loaded:   p.loaded,
		Total:    p.total,
		Percent:  percent,
	}, true
}
