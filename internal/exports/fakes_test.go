package exports

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pwnholic/docexport/internal/cache"
)

type drawCall struct {
	Page       int
	Ref        string
	X, Y, W, H float64
}

type fakeSurface struct {
	bound  *PageHandle
	scales [][2]float64
	draws  []drawCall
	err    error
}

func (s *fakeSurface) Bind(page PageHandle) {
	s.bound = &page
}

func (s *fakeSurface) SetScale(sx, sy float64) {
	s.scales = append(s.scales, [2]float64{sx, sy})
}

func (s *fakeSurface) DrawImage(bmp *cache.Bitmap, x, y, w, h float64) error {
	if s.err != nil {
		return s.err
	}
	page := -1
	if s.bound != nil {
		page = s.bound.Index
	}
	s.draws = append(s.draws, drawCall{Page: page, Ref: bmp.Ref, X: x, Y: y, W: w, H: h})
	return nil
}

type fakeDocument struct {
	mu       sync.Mutex
	started  []int
	finished []int
	closed   int
	writeErr error
	surface  *fakeSurface
}

func newFakeDocument() *fakeDocument {
	return &fakeDocument{surface: &fakeSurface{}}
}

func (d *fakeDocument) Surface() Surface {
	return d.surface
}

func (d *fakeDocument) StartPage(width, height float64, index int) (PageHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = append(d.started, index)
	return PageHandle{Index: index, Width: width, Height: height}, nil
}

func (d *fakeDocument) FinishPage(page PageHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finished = append(d.finished, page.Index)
	return nil
}

func (d *fakeDocument) WriteTo(w io.Writer) (int64, error) {
	if d.writeErr != nil {
		return 0, d.writeErr
	}
	n, err := fmt.Fprintf(w, "%%PDF-fake pages=%d\n", len(d.finished))
	return int64(n), err
}

func (d *fakeDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

func (d *fakeDocument) startedPages() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.started...)
}

// copyCompressor copies in to out, optionally padding the output.
type copyCompressor struct {
	err      error
	pad      int
	calls    int
	qualitys []int
}

func (c *copyCompressor) Compress(_ context.Context, in, out string, quality int) error {
	c.calls++
	c.qualitys = append(c.qualitys, quality)
	if c.err != nil {
		return c.err
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	data = append(data, make([]byte, c.pad)...)
	return os.WriteFile(out, data, 0644)
}
