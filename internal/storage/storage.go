package storage

import "context"

// Handle identifies a file entry created by a Provider.
type Handle struct {
	Name     string
	MimeType string
	Key      string
}

// Provider is a writable, provider-managed folder.
type Provider interface {
	// CreateFile creates a new, empty entry. The provider may adjust name
	// to avoid collisions or to add the extension for mimeType.
	CreateFile(ctx context.Context, mimeType, name string) (Handle, error)

	// URI returns the canonical location identifier of the entry.
	URI(h Handle) string

	// CopyInto replaces the entry's content with the bytes at sourcePath.
	CopyInto(ctx context.Context, h Handle, sourcePath string) error
}

// Resolver opens the Provider behind a destination URI.
type Resolver interface {
	Open(ctx context.Context, uri string) (Provider, error)
}
