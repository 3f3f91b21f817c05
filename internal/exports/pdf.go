package exports

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/signintech/gopdf"

	"github.com/pwnholic/docexport/internal/cache"
)

var (
	ErrPageOpen      = errors.New("exports: a page is already open")
	ErrNoOpenPage    = errors.New("exports: no open page")
	ErrPageOrder     = errors.New("exports: pages must be appended in order")
	ErrFinalized     = errors.New("exports: document already finalized")
	ErrNotBound      = errors.New("exports: surface not bound to the open page")
	ErrEmptyDocument = errors.New("exports: document has no pages")
)

// PDFGenerator is a gopdf-backed Document. Images are embedded as given;
// stream compression is left to the compression stage.
type PDFGenerator struct {
	pdf   *gopdf.GoPdf
	mutex sync.Mutex

	open      *PageHandle
	next      int
	finalized bool
	surface   *pdfSurface
}

func NewPDFGenerator() *PDFGenerator {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{
		Unit:     gopdf.UnitPT,
		PageSize: *gopdf.PageSizeA4,
	})
	pdf.SetNoCompression()

	g := &PDFGenerator{pdf: pdf}
	g.surface = &pdfSurface{gen: g, sx: 1, sy: 1}
	return g
}

// NewPDFDocument adapts NewPDFGenerator to DocumentFactory.
func NewPDFDocument() Document {
	return NewPDFGenerator()
}

func (p *PDFGenerator) Surface() Surface {
	return p.surface
}

func (p *PDFGenerator) StartPage(width, height float64, index int) (PageHandle, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	switch {
	case p.finalized:
		return PageHandle{}, ErrFinalized
	case p.open != nil:
		return PageHandle{}, ErrPageOpen
	case index != p.next:
		return PageHandle{}, fmt.Errorf("%w: got index %d, want %d", ErrPageOrder, index, p.next)
	case width <= 0 || height <= 0:
		return PageHandle{}, fmt.Errorf("invalid page size %.2fx%.2f", width, height)
	}

	p.pdf.AddPageWithOption(gopdf.PageOption{PageSize: &gopdf.Rect{W: width, H: height}})
	page := PageHandle{Index: index, Width: width, Height: height}
	p.open = &page
	return page, nil
}

func (p *PDFGenerator) FinishPage(page PageHandle) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.open == nil {
		return ErrNoOpenPage
	}
	if p.open.Index != page.Index {
		return fmt.Errorf("%w: finishing page %d while page %d is open", ErrPageOrder, page.Index, p.open.Index)
	}
	p.open = nil
	p.next++
	p.surface.unbind()
	return nil
}

// WriteTo serializes the document. It may be called once, after the last
// page has been finished; the document is finalized afterwards.
func (p *PDFGenerator) WriteTo(w io.Writer) (int64, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	switch {
	case p.pdf == nil, p.finalized:
		return 0, ErrFinalized
	case p.open != nil:
		return 0, ErrPageOpen
	case p.next == 0:
		return 0, ErrEmptyDocument
	}

	p.finalized = true
	return p.pdf.WriteTo(w)
}

func (p *PDFGenerator) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.finalized = true
	if p.pdf != nil {
		p.pdf.Close()
		p.pdf = nil
	}
	return nil
}

type pdfSurface struct {
	gen    *PDFGenerator
	bound  *PageHandle
	sx, sy float64
}

func (s *pdfSurface) Bind(page PageHandle) {
	s.bound = &page
	s.sx, s.sy = 1, 1
}

func (s *pdfSurface) unbind() {
	s.bound = nil
}

func (s *pdfSurface) SetScale(sx, sy float64) {
	s.sx, s.sy = sx, sy
}

func (s *pdfSurface) DrawImage(bmp *cache.Bitmap, x, y, w, h float64) error {
	s.gen.mutex.Lock()
	defer s.gen.mutex.Unlock()

	if s.bound == nil || s.gen.open == nil || s.gen.open.Index != s.bound.Index {
		return ErrNotBound
	}
	if bmp == nil || len(bmp.Data) == 0 {
		return fmt.Errorf("draw: %w", cache.ErrEmptyImage)
	}

	imageHolder, err := gopdf.ImageHolderByBytes(bmp.Data)
	if err != nil {
		return fmt.Errorf("failed to create PDF image holder: %w", err)
	}

	rect := &gopdf.Rect{W: w * s.sx, H: h * s.sy}
	if err := s.gen.pdf.ImageByHolder(imageHolder, x*s.sx, y*s.sy, rect); err != nil {
		return fmt.Errorf("failed to add image to PDF: %w", err)
	}
	return nil
}
