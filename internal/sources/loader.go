package sources

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/pwnholic/docexport/internal"
)

var (
	ErrNoDocuments = errors.New("sources: no documents")
	ErrEmptyPage   = errors.New("sources: page has no images")
)

type manifestFile struct {
	Documents []manifestDocument `toml:"documents"`
}

type manifestDocument struct {
	Name  string         `toml:"name"`
	Pages []manifestPage `toml:"pages"`
}

type manifestPage struct {
	Images []string `toml:"images"`
}

// LoadManifest reads a TOML manifest of the form
//
//	[[documents]]
//	name = "invoice"
//	[[documents.pages]]
//	images = ["scan-1.jpg"]
//
// Relative image paths resolve against the manifest's directory.
func LoadManifest(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data, filepath.Dir(path))
}

func ParseManifest(data []byte, baseDir string) ([]Document, error) {
	var mf manifestFile
	if err := toml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	docs := make([]Document, 0, len(mf.Documents))
	for di, md := range mf.Documents {
		doc := Document{Name: md.Name}
		if doc.Name == "" {
			doc.Name = fmt.Sprintf("document-%d", di+1)
		}
		for pi, mp := range md.Pages {
			if len(mp.Images) == 0 {
				return nil, fmt.Errorf("%w: %s page %d", ErrEmptyPage, doc.Name, pi+1)
			}
			page := Page{Images: make([]Image, 0, len(mp.Images))}
			for _, ref := range mp.Images {
				page.Images = append(page.Images, Image{Ref: resolveRef(ref, baseDir)})
			}
			doc.Pages = append(doc.Pages, page)
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	return docs, nil
}

// LoadDirs turns every directory into a document whose pages are the
// supported image files it contains, one image per page.
func LoadDirs(dirs []string) ([]Document, error) {
	var docs []Document
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", dir, err)
		}

		var names []string
		for _, e := range entries {
			if e.IsDir() || !SupportedImage(e.Name()) {
				continue
			}
			names = append(names, e.Name())
		}
		if len(names) == 0 {
			internal.Warn("Skipping %s: no supported images", dir)
			continue
		}
		sort.Slice(names, func(i, j int) bool {
			return naturalLess(names[i], names[j])
		})

		doc := Document{Name: filepath.Base(filepath.Clean(dir))}
		for _, name := range names {
			doc.Pages = append(doc.Pages, Page{Images: []Image{{Ref: filepath.Join(dir, name)}}})
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	return docs, nil
}

func resolveRef(ref, baseDir string) string {
	if (Image{Ref: ref}).Remote() || filepath.IsAbs(ref) || baseDir == "" {
		return ref
	}
	return filepath.Join(baseDir, ref)
}

// naturalLess orders "page2" before "page10".
func naturalLess(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	for a != "" && b != "" {
		ca, cb := a[0], b[0]
		if isDigit(ca) && isDigit(cb) {
			na, ra := leadingDigits(a)
			nb, rb := leadingDigits(b)
			ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
			if len(ta) != len(tb) {
				return len(ta) < len(tb)
			}
			if ta != tb {
				return ta < tb
			}
			a, b = ra, rb
			continue
		}
		if ca != cb {
			return ca < cb
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func leadingDigits(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
