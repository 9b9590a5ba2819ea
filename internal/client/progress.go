package client

import (
	"io"

	"github.com/mmcdole/cutout/internal/domain"
)

// progressReader counts bytes read from an upload body and reports an
// integer percent of total. Reports are monotonic: a value is only emitted
// when it is larger than the last one.
type progressReader struct {
	r          io.Reader
	total      int64
	sent       int64
	last       int
	onProgress domain.ProgressFunc
}

func newProgressReader(r io.Reader, total int64, onProgress domain.ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, last: -1, onProgress: onProgress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.report()
	}
	return n, err
}

func (p *progressReader) report() {
	if p.onProgress == nil || p.total <= 0 {
		return
	}
	percent := Percent(p.sent, p.total)
	if percent > p.last {
		p.last = percent
		p.onProgress(percent)
	}
}

// Percent computes floor(sent*100/total), clamped to 0..100
func Percent(sent, total int64) int {
	if total <= 0 || sent <= 0 {
		return 0
	}
	if sent >= total {
		return 100
	}
	return int(sent * 100 / total)
}
