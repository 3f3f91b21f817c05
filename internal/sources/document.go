// Package sources describes the scanned documents handed to an export and
// loads them from manifests or image directories.
package sources

import (
	"path"
	"strings"
)

// Image references one rasterized image. Width and Height hold the natural
// pixel size and are zero until probed.
type Image struct {
	Ref    string `toml:"ref"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// Remote reports whether the image is fetched over HTTP.
func (i Image) Remote() bool {
	ref := strings.ToLower(i.Ref)
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Probed reports whether the natural size is known.
func (i Image) Probed() bool {
	return i.Width > 0 && i.Height > 0
}

// Page is one source page, drawn as a single plan item.
type Page struct {
	Images []Image
}

type Document struct {
	Name  string
	Pages []Page
}

// TotalPages counts source pages across docs.
func TotalPages(docs []Document) int {
	total := 0
	for _, d := range docs {
		total += len(d.Pages)
	}
	return total
}

var supportedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
	"gif":  true,
	"bmp":  true,
	"tif":  true,
	"tiff": true,
}

// SupportedImage reports whether name carries an image extension the
// decoder understands.
func SupportedImage(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	if i := strings.IndexAny(ext, "?#"); i >= 0 {
		ext = ext[:i]
	}
	return supportedExtensions[ext]
}
