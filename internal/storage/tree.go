package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pwnholic/docexport/internal"
)

const treeSegment = "tree"

var mimeExtensions = map[string]string{
	"application/pdf": ".pdf",
}

// Tree resolves tree URIs of the form scheme://authority/tree/id onto
// directories below a base path. Every scheme is accepted; the authority
// and tree id select the directory.
type Tree struct {
	basePath string
	logger   *internal.Logger
}

// NewTree creates a tree resolver rooted at basePath. The base path is
// resolved to an absolute path; directories are created on first write.
func NewTree(basePath string, logger *internal.Logger) (*Tree, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base_path required")
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base_path: %w", err)
	}

	if logger == nil {
		logger = internal.GetDefaultLogger()
	}
	return &Tree{basePath: absPath, logger: logger.With("storage")}, nil
}

func (t *Tree) Open(ctx context.Context, uri string) (Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[0] != treeSegment {
		return nil, fmt.Errorf("%w: %s is not a tree uri", ErrInvalidURI, uri)
	}
	treeID, err := url.PathUnescape(strings.Join(segments[1:], "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}

	rel, err := cleanRelative(filepath.Join(u.Host, filepath.FromSlash(treeID)))
	if err != nil {
		return nil, err
	}

	return &treeFolder{
		tree:    t,
		dir:     filepath.Join(t.basePath, rel),
		rootURI: fmt.Sprintf("%s://%s/%s/%s", u.Scheme, u.Host, treeSegment, strings.Join(segments[1:], "/")),
	}, nil
}

type treeFolder struct {
	tree    *Tree
	dir     string
	rootURI string
}

func (f *treeFolder) CreateFile(ctx context.Context, mimeType, name string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}

	name, err := sanitizeName(name)
	if err != nil {
		return Handle{}, err
	}
	name = withExtension(name, mimeType)

	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return Handle{}, mapFSError("create directory", err)
	}

	base, ext := splitExt(name)
	candidate := name
	for n := 1; ; n++ {
		file, err := os.OpenFile(filepath.Join(f.dir, candidate), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			file.Close()
			break
		}
		if !errors.Is(err, fs.ErrExist) {
			return Handle{}, mapFSError("create file", err)
		}
		candidate = fmt.Sprintf("%s (%d)%s", base, n, ext)
	}

	f.tree.logger.Debug("Created %s in %s", candidate, f.dir)
	return Handle{Name: candidate, MimeType: mimeType, Key: filepath.Join(f.dir, candidate)}, nil
}

func (f *treeFolder) URI(h Handle) string {
	return f.rootURI + "/document/" + url.PathEscape(h.Name)
}

func (f *treeFolder) CopyInto(ctx context.Context, h Handle, sourcePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.Key == "" || filepath.Dir(h.Key) != f.dir {
		return fmt.Errorf("%w: handle %q", ErrNotFound, h.Name)
	}
	if _, err := os.Stat(h.Key); err != nil {
		return mapFSError("stat entry", err)
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return mapFSError("open source", err)
	}
	defer src.Close()

	tmpPath := h.Key + ".tmp"
	dst, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return mapFSError("create temp file", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("copy content: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, h.Key); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func cleanRelative(p string) (string, error) {
	cleaned := filepath.Clean(p)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: path %q escapes the tree", ErrInvalidURI, p)
	}
	return cleaned, nil
}

func sanitizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}

func withExtension(name, mimeType string) string {
	ext, ok := mimeExtensions[mimeType]
	if !ok {
		if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	if ext == "" || strings.EqualFold(path.Ext(name), ext) {
		return name
	}
	return name + ext
}

func splitExt(name string) (string, string) {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

func mapFSError(op string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}
	return fmt.Errorf("%s: %w", op, err)
}
