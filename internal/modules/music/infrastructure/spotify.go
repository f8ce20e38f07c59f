package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/altafio/muzebot/internal/modules/music/application/ports"
)

// spotifyRateLimit caps outgoing Web API calls. Spotify throttles per
// 30-second window; staying under a few requests per second keeps
// playlist expansion well clear of 429 responses.
const (
	spotifyRateLimit = rate.Limit(5)
	spotifyRateBurst = 10
)

// SpotifyCatalog looks up track metadata on the Spotify Web API. The
// service is catalog-only, so entries are metadata for cross-resolution
// rather than playable media.
type SpotifyCatalog struct {
	client  *spotify.Client
	limiter *rate.Limiter
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

// NewSpotifyCatalog creates a SpotifyCatalog using the client
// credentials flow. Tokens refresh automatically.
func NewSpotifyCatalog(config SpotifyConfig) (*SpotifyCatalog, error) {
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("spotify credentials are not set")
	}

	credentials := &clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	httpClient := credentials.Client(context.Background())

	return &SpotifyCatalog{
		client:  spotify.New(httpClient, spotify.WithRetry(true)),
		limiter: rate.NewLimiter(spotifyRateLimit, spotifyRateBurst),
	}, nil
}

// Track resolves a single track ID.
func (s *SpotifyCatalog) Track(ctx context.Context, id string) (*ports.CatalogEntry, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	track, err := s.client.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to look up track: %w", err)
	}

	entry := trackEntry(track.Name, track.Artists)
	return &entry, nil
}

// Album expands an album into its ordered member tracks.
func (s *SpotifyCatalog) Album(ctx context.Context, id string) ([]ports.CatalogEntry, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	album, err := s.client.GetAlbum(ctx, spotify.ID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to look up album: %w", err)
	}

	entries := make([]ports.CatalogEntry, 0, album.Tracks.Total)
	page := &album.Tracks
	for {
		for _, track := range page.Tracks {
			entries = append(entries, trackEntry(track.Name, track.Artists))
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to page album tracks: %w", err)
		}
	}

	return entries, nil
}

// Playlist expands a playlist into its ordered member tracks. Episodes
// and other non-track items are skipped; a playlist made up entirely of
// them resolves to ErrNestedCollection.
func (s *SpotifyCatalog) Playlist(ctx context.Context, id string) ([]ports.CatalogEntry, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	page, err := s.client.GetPlaylistItems(ctx, spotify.ID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to look up playlist: %w", err)
	}

	var entries []ports.CatalogEntry
	items := 0
	for {
		for _, item := range page.Items {
			items++
			if item.Track.Track == nil {
				continue
			}
			entries = append(entries, trackEntry(item.Track.Track.Name, item.Track.Track.Artists))
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to page playlist items: %w", err)
		}
	}

	if len(entries) == 0 && items > 0 {
		return nil, ports.ErrNestedCollection
	}
	return entries, nil
}

func trackEntry(name string, artists []spotify.SimpleArtist) ports.CatalogEntry {
	names := make([]string, len(artists))
	for i, artist := range artists {
		names[i] = artist.Name
	}
	return ports.CatalogEntry{
		Title:  name,
		Author: strings.Join(names, ", "),
	}
}

// Ensure SpotifyCatalog implements ports.Catalog.
var _ ports.Catalog = (*SpotifyCatalog)(nil)
