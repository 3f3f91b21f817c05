package exports

import (
	"context"
	"errors"
	"fmt"

	"github.com/pwnholic/docexport/internal/cache"
	"github.com/pwnholic/docexport/internal/layout"
)

var ErrRender = errors.New("exports: render failed")

// Renderer draws one planned page onto a surface.
type Renderer struct {
	// Scale is the device density applied to the surface transform.
	Scale float64
	// Margin in points around and between grid cells. Full-bleed pages
	// ignore it.
	Margin float64
}

func NewRenderer(scale, margin float64) *Renderer {
	if scale <= 0 {
		scale = 1
	}
	if margin < 0 {
		margin = 0
	}
	return &Renderer{Scale: scale, Margin: margin}
}

// RenderPage loads the page's images through images and draws them in plan
// order. Any failure is wrapped in ErrRender. A page whose margins leave
// no room for its cells also wraps layout.ErrInvalidLayout.
func (r *Renderer) RenderPage(ctx context.Context, surface Surface, page layout.Page, images *cache.ImageCache) error {
	scale := r.Scale
	if scale <= 0 {
		scale = 1
	}
	surface.SetScale(scale, scale)

	w, h := page.Width/scale, page.Height/scale
	margin := r.Margin / scale
	if page.Bleed {
		margin = 0
	}

	n := len(page.Items)
	for i, item := range page.Items {
		cell := layout.Cell(n, i, w, h, margin)
		if cell.W <= 0 || cell.H <= 0 {
			return fmt.Errorf("%w: %w: page %d margin %.1f leaves no room for %d items on %.0fx%.0f",
				ErrRender, layout.ErrInvalidLayout, page.Index, r.Margin, n, page.Width, page.Height)
		}
		bands := layout.Split(cell, len(item.Images))

		for j, img := range item.Images {
			bmp, err := images.Get(ctx, img)
			if err != nil {
				return fmt.Errorf("%w: page %d document %d source page %d: %w", ErrRender, page.Index, item.Document, item.Page, err)
			}

			dst := layout.Fit(bands[j], bmp.Width, bmp.Height)
			if err := surface.DrawImage(bmp, dst.X, dst.Y, dst.W, dst.H); err != nil {
				return fmt.Errorf("%w: page %d draw %s: %w", ErrRender, page.Index, img.Ref, err)
			}
		}
	}
	return nil
}
