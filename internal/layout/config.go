// Package layout plans how source pages are packed onto physical output
// pages. Everything here is pure: no I/O and no shared state.
package layout

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidLayout = errors.New("layout: invalid layout")

type PaperSize string

const (
	A5   PaperSize = "a5"
	A4   PaperSize = "a4"
	A3   PaperSize = "a3"
	Full PaperSize = "full"
)

type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// Size is a page size in points.
type Size struct {
	Width  float64
	Height float64
}

// Swap returns the size rotated by 90 degrees.
func (s Size) Swap() Size {
	return Size{Width: s.Height, Height: s.Width}
}

var paperSizes = map[PaperSize]Size{
	A5: {Width: 420, Height: 595},
	A4: {Width: 595, Height: 842},
	A3: {Width: 842, Height: 1191},
}

type Config struct {
	PaperSize    PaperSize   `toml:"paper_size"`
	Orientation  Orientation `toml:"orientation"`
	ItemsPerPage int         `toml:"items_per_page"`
}

// Normalize validates cfg and returns a copy with canonical values.
// A full-bleed page always holds exactly one item.
func Normalize(cfg Config) (Config, error) {
	out := Config{
		PaperSize:    PaperSize(strings.ToLower(strings.TrimSpace(string(cfg.PaperSize)))),
		Orientation:  Orientation(strings.ToLower(strings.TrimSpace(string(cfg.Orientation)))),
		ItemsPerPage: cfg.ItemsPerPage,
	}

	if out.Orientation == "" {
		out.Orientation = Portrait
	}
	if out.Orientation != Portrait && out.Orientation != Landscape {
		return Config{}, fmt.Errorf("%w: unknown orientation %q", ErrInvalidLayout, cfg.Orientation)
	}

	if _, ok := paperSizes[out.PaperSize]; !ok && out.PaperSize != Full {
		return Config{}, fmt.Errorf("%w: unsupported paper size %q", ErrInvalidLayout, cfg.PaperSize)
	}

	if out.PaperSize == Full {
		out.ItemsPerPage = 1
	}
	if out.ItemsPerPage < 1 {
		return Config{}, fmt.Errorf("%w: items per page must be positive, got %d", ErrInvalidLayout, cfg.ItemsPerPage)
	}

	return out, nil
}

// Dimensions resolves the page size of a normalized table-sized config.
// Full pages take their size from the images they hold, see PageSize.
func Dimensions(cfg Config) (Size, error) {
	size, ok := paperSizes[cfg.PaperSize]
	if !ok {
		return Size{}, fmt.Errorf("%w: no fixed dimensions for paper size %q", ErrInvalidLayout, cfg.PaperSize)
	}
	if cfg.Orientation == Landscape {
		size = size.Swap()
	}
	return size, nil
}
