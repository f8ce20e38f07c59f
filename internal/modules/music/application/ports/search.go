package ports

import (
	"context"

	"github.com/altafio/muzebot/internal/modules/music/domain"
)

// LoadKind classifies the outcome of a track load.
type LoadKind string

const (
	LoadKindTrack    LoadKind = "track"
	LoadKindPlaylist LoadKind = "playlist"
	LoadKindSearch   LoadKind = "search"
	LoadKindEmpty    LoadKind = "empty"
	LoadKindError    LoadKind = "error"
)

// LoadResult is what the audio node resolved a query or URL to.
type LoadResult struct {
	Kind         LoadKind
	Tracks       []domain.Track
	PlaylistName string
}

// TrackSearcher resolves URLs and search queries against the audio
// node's own track loading. Search queries must carry the node's search
// prefix (e.g. "ytsearch:").
type TrackSearcher interface {
	Load(ctx context.Context, query string) (*LoadResult, error)
}
