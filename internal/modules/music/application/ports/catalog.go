package ports

import (
	"context"
	"errors"
)

// ErrNestedCollection is returned by Catalog implementations when a
// collection's members are themselves collections rather than
// individual tracks, which cannot be cross-resolved.
var ErrNestedCollection = errors.New("collection contains nested collections")

// CatalogEntry is the metadata of a track on a linked streaming
// service. The service is catalog-only: the audio node cannot stream
// its media, so each entry must be cross-resolved through keyword
// search to find a streamable equivalent.
type CatalogEntry struct {
	Title  string
	Author string
}

// Catalog looks up track metadata on a linked streaming service.
type Catalog interface {
	// Track resolves a single catalog track ID.
	Track(ctx context.Context, id string) (*CatalogEntry, error)

	// Album expands an album into its ordered member tracks.
	Album(ctx context.Context, id string) ([]CatalogEntry, error)

	// Playlist expands a playlist into its ordered member tracks.
	// Returns ErrNestedCollection when the members are collections.
	Playlist(ctx context.Context, id string) ([]CatalogEntry, error)
}
