// Package storage resolves provider-managed destinations such as
// content://authority/tree/id to writable locations.
package storage

import "errors"

var (
	// ErrInvalidURI indicates the destination is not a tree URI this
	// resolver understands.
	ErrInvalidURI = errors.New("storage: invalid destination uri")

	// ErrInvalidName indicates an empty file name or one containing
	// path separators or traversal.
	ErrInvalidName = errors.New("storage: invalid file name")

	// ErrNotFound indicates the handle or source file does not exist.
	ErrNotFound = errors.New("storage: not found")

	ErrPermissionDenied = errors.New("storage: permission denied")
)
