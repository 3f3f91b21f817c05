// Package exports assembles planned pages into a PDF, compresses it and
// hands it to a destination.
package exports

import (
	"context"
	"io"

	"github.com/pwnholic/docexport/internal/cache"
)

// PageHandle identifies the page currently open in a Builder.
type PageHandle struct {
	Index  int
	Width  float64
	Height float64
}

// Builder accumulates pages in append order, one open page at a time,
// and serializes them once.
type Builder interface {
	StartPage(width, height float64, index int) (PageHandle, error)
	FinishPage(page PageHandle) error
	WriteTo(w io.Writer) (int64, error)
	Close() error
}

// Surface draws onto the page it is bound to.
type Surface interface {
	Bind(page PageHandle)
	SetScale(sx, sy float64)
	DrawImage(bmp *cache.Bitmap, x, y, w, h float64) error
}

// Compressor rewrites the raw document at in into a smaller one at out.
type Compressor interface {
	Compress(ctx context.Context, in, out string, quality int) error
}

// Document is a Builder that also hands out the Surface for its open page.
type Document interface {
	Builder
	Surface() Surface
}

// DocumentFactory creates a fresh document for each export.
type DocumentFactory func() Document
