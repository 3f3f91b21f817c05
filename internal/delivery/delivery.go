// Package delivery moves the compressed artifact to its final destination.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"

	"github.com/pwnholic/docexport/internal"
	"github.com/pwnholic/docexport/internal/storage"
)

const MimeTypePDF = "application/pdf"

var (
	ErrDelivery        = errors.New("delivery: failed")
	ErrNoDestination   = errors.New("delivery: destination required")
	ErrNoProvider      = errors.New("delivery: no storage provider for destination")
	ErrInvalidFilename = errors.New("delivery: invalid filename")
)

var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

// Destination is where a finished export ends up.
type Destination interface {
	// Prepare readies the destination before anything is staged.
	Prepare() error

	// Stage returns a fresh path the compressor should write the artifact
	// to. It never names an existing file.
	Stage(filename, tempDir string) string

	// Deliver moves the staged artifact into place and returns its
	// location identifier.
	Deliver(ctx context.Context, staged, filename string) (string, error)

	String() string
}

// IsProviderURI reports whether raw has the scheme:// form.
func IsProviderURI(raw string) bool {
	return schemePattern.MatchString(raw)
}

// Resolve classifies raw once: scheme:// destinations go through the
// storage resolver, anything else is a filesystem directory.
func Resolve(raw string, resolver storage.Resolver, logger *internal.Logger) (Destination, error) {
	if raw == "" {
		return nil, ErrNoDestination
	}
	if logger == nil {
		logger = internal.GetDefaultLogger()
	}
	logger = logger.With("delivery")

	if IsProviderURI(raw) {
		if resolver == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoProvider, raw)
		}
		return &ProviderDestination{URI: raw, Resolver: resolver, logger: logger}, nil
	}
	return &FilesystemDestination{Dir: raw, logger: logger}, nil
}

// ValidateFilename rejects names that would escape the destination.
func ValidateFilename(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return nil
}

// FilesystemDestination writes straight into a directory.
type FilesystemDestination struct {
	Dir    string
	logger *internal.Logger
}

func (d *FilesystemDestination) String() string {
	return d.Dir
}

// Stage returns a hidden sibling of the final file so a file already at
// the destination survives until Deliver replaces it.
func (d *FilesystemDestination) Stage(filename, _ string) string {
	return filepath.Join(d.Dir, "."+filename+"."+uuid.NewString()+".tmp")
}

// Prepare creates the target directory.
func (d *FilesystemDestination) Prepare() error {
	if err := os.MkdirAll(d.Dir, os.ModePerm); err != nil {
		return fmt.Errorf("%w: create directory %s: %w", ErrDelivery, d.Dir, err)
	}
	return nil
}

func (d *FilesystemDestination) Deliver(ctx context.Context, staged, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	final := filepath.Join(d.Dir, filename)
	if staged != final {
		if err := os.Rename(staged, final); err != nil {
			d.logger.Error("Failed to move %s to %s: %v", staged, final, err)
			return "", fmt.Errorf("%w: %w", ErrDelivery, err)
		}
	}

	if _, err := os.Stat(final); err != nil {
		d.logger.Error("Delivered file %s missing: %v", final, err)
		return "", fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	return final, nil
}

// ProviderDestination streams the artifact through a storage provider.
type ProviderDestination struct {
	URI      string
	Resolver storage.Resolver
	logger   *internal.Logger
}

func (d *ProviderDestination) String() string {
	return d.URI
}

func (d *ProviderDestination) Prepare() error {
	return nil
}

func (d *ProviderDestination) Stage(_, tempDir string) string {
	return filepath.Join(tempDir, "compressed-"+uuid.NewString()+".pdf")
}

func (d *ProviderDestination) Deliver(ctx context.Context, staged, filename string) (string, error) {
	provider, err := d.Resolver.Open(ctx, d.URI)
	if err != nil {
		d.logger.Error("Failed to open provider %s: %v", d.URI, err)
		return "", fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	handle, err := provider.CreateFile(ctx, MimeTypePDF, filename)
	if err != nil {
		d.logger.Error("Failed to create %s in %s: %v", filename, d.URI, err)
		return "", fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	if err := provider.CopyInto(ctx, handle, staged); err != nil {
		d.logger.Error("Failed to copy %s into %s: %v", staged, d.URI, err)
		return "", fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	return provider.URI(handle), nil
}
