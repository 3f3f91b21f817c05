package exports

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pwnholic/docexport/internal/cache"
	"github.com/pwnholic/docexport/internal/layout"
	"github.com/pwnholic/docexport/internal/sources"
)

func sizedLoader(w, h int) cache.Loader {
	return cache.LoaderFunc(func(_ context.Context, img sources.Image) (*cache.Bitmap, error) {
		return &cache.Bitmap{Ref: img.Ref, Data: []byte{0xff, 0xd8}, Width: w, Height: h}, nil
	})
}

func TestRenderPage_GridOrder(t *testing.T) {
	page := layout.Page{
		Index:  0,
		Width:  600,
		Height: 800,
		Items: []layout.Item{
			{Document: 0, Page: 0, Images: []sources.Image{{Ref: "a"}}},
			{Document: 0, Page: 1, Images: []sources.Image{{Ref: "b"}}},
		},
	}
	surface := &fakeSurface{}
	images := cache.New(sizedLoader(580, 385))

	if err := NewRenderer(1, 10).RenderPage(context.Background(), surface, page, images); err != nil {
		t.Fatalf("RenderPage() failed: %v", err)
	}

	want := []drawCall{
		{Page: -1, Ref: "a", X: 10, Y: 10, W: 580, H: 385},
		{Page: -1, Ref: "b", X: 10, Y: 405, W: 580, H: 385},
	}
	if len(surface.draws) != len(want) {
		t.Fatalf("draws = %+v", surface.draws)
	}
	for i := range want {
		if surface.draws[i] != want[i] {
			t.Errorf("draw %d = %+v, want %+v", i, surface.draws[i], want[i])
		}
	}
}

func TestRenderPage_MarginsExhaustPage(t *testing.T) {
	page := layout.Page{Index: 2, Width: 100, Height: 100}
	for i := 0; i < 4; i++ {
		page.Items = append(page.Items, layout.Item{Page: i, Images: []sources.Image{{Ref: fmt.Sprintf("p%d", i)}}})
	}
	surface := &fakeSurface{}
	images := cache.New(sizedLoader(10, 10))

	err := NewRenderer(1, 40).RenderPage(context.Background(), surface, page, images)
	if !errors.Is(err, layout.ErrInvalidLayout) || !errors.Is(err, ErrRender) {
		t.Fatalf("RenderPage() error = %v, want ErrRender wrapping ErrInvalidLayout", err)
	}
	if len(surface.draws) != 0 {
		t.Errorf("drew %d images on a page with no usable area", len(surface.draws))
	}
	if images.Loads() != 0 {
		t.Errorf("loaded %d images for a page with no usable area", images.Loads())
	}
}

func TestRenderPage_ScaleAndBleed(t *testing.T) {
	page := layout.Page{
		Width:  200,
		Height: 100,
		Bleed:  true,
		Items:  []layout.Item{{Images: []sources.Image{{Ref: "full"}}}},
	}
	surface := &fakeSurface{}

	err := NewRenderer(2, 40).RenderPage(context.Background(), surface, page, cache.New(sizedLoader(200, 100)))
	if err != nil {
		t.Fatalf("RenderPage() failed: %v", err)
	}

	if len(surface.scales) != 1 || surface.scales[0] != [2]float64{2, 2} {
		t.Errorf("scales = %v, want one SetScale(2, 2)", surface.scales)
	}
	want := drawCall{Page: -1, Ref: "full", X: 0, Y: 0, W: 100, H: 50}
	if len(surface.draws) != 1 || surface.draws[0] != want {
		t.Errorf("draws = %+v, want %+v", surface.draws, want)
	}
}

func TestRenderPage_StackedImages(t *testing.T) {
	page := layout.Page{
		Width:  100,
		Height: 200,
		Bleed:  true,
		Items:  []layout.Item{{Images: []sources.Image{{Ref: "top"}, {Ref: "bottom"}}}},
	}
	surface := &fakeSurface{}

	if err := NewRenderer(1, 0).RenderPage(context.Background(), surface, page, cache.New(sizedLoader(100, 100))); err != nil {
		t.Fatalf("RenderPage() failed: %v", err)
	}
	if len(surface.draws) != 2 || surface.draws[0].Y != 0 || surface.draws[1].Y != 100 {
		t.Errorf("draws = %+v", surface.draws)
	}
}

func TestRenderPage_Errors(t *testing.T) {
	page := layout.Page{Width: 100, Height: 100, Items: []layout.Item{{Images: []sources.Image{{Ref: "x"}}}}}
	boom := errors.New("boom")

	failing := cache.New(cache.LoaderFunc(func(context.Context, sources.Image) (*cache.Bitmap, error) {
		return nil, boom
	}))
	err := NewRenderer(1, 0).RenderPage(context.Background(), &fakeSurface{}, page, failing)
	if !errors.Is(err, ErrRender) || !errors.Is(err, boom) {
		t.Errorf("load failure: error = %v, want ErrRender wrapping boom", err)
	}

	err = NewRenderer(1, 0).RenderPage(context.Background(), &fakeSurface{err: boom}, page, cache.New(sizedLoader(1, 1)))
	if !errors.Is(err, ErrRender) || !errors.Is(err, boom) {
		t.Errorf("draw failure: error = %v, want ErrRender wrapping boom", err)
	}
}
