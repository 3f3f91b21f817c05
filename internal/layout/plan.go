package layout

import (
	"fmt"

	"github.com/pwnholic/docexport/internal/sources"
)

// Item is one source page placed on a physical page.
type Item struct {
	Document int
	Page     int
	Images   []sources.Image
}

// Page is one physical output page.
type Page struct {
	Index  int
	Width  float64
	Height float64
	Items  []Item
	// Bleed marks full-bleed pages sized from their image; they carry
	// no margins.
	Bleed bool
}

// Size returns the page dimensions.
func (p Page) Size() Size {
	return Size{Width: p.Width, Height: p.Height}
}

// Plan packs the source pages of docs onto physical pages in document and
// page order. cfg is normalized first and never modified.
func Plan(docs []sources.Document, cfg Config) ([]Page, error) {
	cfg, err := Normalize(cfg)
	if err != nil {
		return nil, err
	}

	var fixed Size
	if cfg.PaperSize != Full {
		if fixed, err = Dimensions(cfg); err != nil {
			return nil, err
		}
	}

	total := sources.TotalPages(docs)
	plan := make([]Page, 0, PageCount(total, cfg))
	current := Page{Index: 0, Width: fixed.Width, Height: fixed.Height}

	for di, doc := range docs {
		for pi, sp := range doc.Pages {
			item := Item{Document: di, Page: pi, Images: sp.Images}

			if cfg.PaperSize == Full {
				size, err := PageSize(sp.Images)
				if err != nil {
					return nil, fmt.Errorf("document %d page %d: %w", di, pi, err)
				}
				if cfg.Orientation == Landscape {
					size = size.Swap()
				}
				current.Width, current.Height = size.Width, size.Height
				current.Bleed = true
			}

			current.Items = append(current.Items, item)
			if len(current.Items) == cfg.ItemsPerPage {
				plan = append(plan, current)
				current = Page{Index: len(plan), Width: fixed.Width, Height: fixed.Height}
			}
		}
	}

	if len(current.Items) > 0 {
		plan = append(plan, current)
	}
	return plan, nil
}

// PageCount is the number of physical pages needed for total source pages.
func PageCount(total int, cfg Config) int {
	if total <= 0 {
		return 0
	}
	n := cfg.ItemsPerPage
	if cfg.PaperSize == Full || n < 1 {
		n = 1
	}
	return (total + n - 1) / n
}

// PageSize is the natural size of a full-bleed page: images are stacked
// vertically, one pixel per point.
func PageSize(images []sources.Image) (Size, error) {
	if len(images) == 0 {
		return Size{}, fmt.Errorf("%w: page has no images", ErrInvalidLayout)
	}

	var size Size
	for _, img := range images {
		if !img.Probed() {
			return Size{}, fmt.Errorf("%w: natural size of %s unknown", ErrInvalidLayout, img.Ref)
		}
		size.Width = max(size.Width, float64(img.Width))
		size.Height += float64(img.Height)
	}
	return size, nil
}

// References counts, for each image ref, the number of plan pages that
// draw it.
func References(plan []Page) map[string]int {
	counts := make(map[string]int)
	for _, p := range plan {
		for ref := range PageRefs(p) {
			counts[ref]++
		}
	}
	return counts
}

// PageRefs is the set of image refs drawn on p.
func PageRefs(p Page) map[string]struct{} {
	refs := make(map[string]struct{})
	for _, item := range p.Items {
		for _, img := range item.Images {
			refs[img.Ref] = struct{}{}
		}
	}
	return refs
}
