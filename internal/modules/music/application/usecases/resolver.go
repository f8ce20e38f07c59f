package usecases

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/altafio/muzebot/internal/modules/music/application/ports"
	"github.com/altafio/muzebot/internal/modules/music/domain"
)

const (
	// DefaultMaxChoices caps how many search candidates are offered
	// for interactive disambiguation.
	DefaultMaxChoices = 7

	// DefaultChoiceTimeout bounds the disambiguation wait.
	DefaultChoiceTimeout = 30 * time.Second

	// DefaultSearchPrefix is the audio node's keyword-search prefix
	// for the default provider.
	DefaultSearchPrefix = "ytsearch:"
)

// cancelWords are the replies that abort a disambiguation.
var cancelWords = map[string]struct{}{
	"cancel": {},
	"abort":  {},
	"stop":   {},
}

// DefaultBlockedHosts are recognized streaming providers the audio node
// has no adapter for. URLs naming them fail fast as unsupported instead
// of round-tripping through a load that cannot succeed.
var DefaultBlockedHosts = []string{
	"music.apple.com",
	"deezer.com",
	"deezer.page.link",
	"tidal.com",
	"listen.tidal.com",
}

// linkedKind classifies a linked streaming service URL.
type linkedKind int

const (
	linkedTrack linkedKind = iota
	linkedAlbum
	linkedPlaylist
	linkedOther
)

// Resolution is the outcome of resolving a query: one or more
// candidate tracks, and whether the requester must pick one.
type Resolution struct {
	Tracks      []domain.Track
	NeedsChoice bool
}

// ResolverConfig tunes the resolver strategies.
type ResolverConfig struct {
	// LinkedHosts are catalog-only providers whose items must be
	// cross-resolved through keyword search.
	LinkedHosts []string

	// BlockedHosts are providers with no audio node adapter at all.
	// Nil selects DefaultBlockedHosts.
	BlockedHosts []string

	MaxChoices    int
	ChoiceTimeout time.Duration
	SearchPrefix  string
}

// ResolverService turns a free-text query or URL into candidate
// playable tracks, delegating to one of several strategies: direct
// link, keyword search, playlist expansion, or linked-service lookup.
type ResolverService struct {
	searcher  ports.TrackSearcher
	catalog   ports.Catalog
	collector ports.ReplyCollector

	linkedHosts   map[string]struct{}
	blockedHosts  map[string]struct{}
	maxChoices    int
	choiceTimeout time.Duration
	searchPrefix  string
}

// NewResolverService creates a ResolverService. The catalog may be nil,
// in which case linked-service URLs resolve as unsupported.
func NewResolverService(
	searcher ports.TrackSearcher,
	catalog ports.Catalog,
	collector ports.ReplyCollector,
	cfg ResolverConfig,
) *ResolverService {
	if cfg.MaxChoices <= 0 {
		cfg.MaxChoices = DefaultMaxChoices
	}
	if cfg.ChoiceTimeout <= 0 {
		cfg.ChoiceTimeout = DefaultChoiceTimeout
	}
	if cfg.SearchPrefix == "" {
		cfg.SearchPrefix = DefaultSearchPrefix
	}
	if cfg.BlockedHosts == nil {
		cfg.BlockedHosts = DefaultBlockedHosts
	}

	linked := make(map[string]struct{}, len(cfg.LinkedHosts))
	for _, host := range cfg.LinkedHosts {
		linked[host] = struct{}{}
	}
	blocked := make(map[string]struct{}, len(cfg.BlockedHosts))
	for _, host := range cfg.BlockedHosts {
		blocked[host] = struct{}{}
	}

	return &ResolverService{
		searcher:      searcher,
		catalog:       catalog,
		collector:     collector,
		linkedHosts:   linked,
		blockedHosts:  blocked,
		maxChoices:    cfg.MaxChoices,
		choiceTimeout: cfg.ChoiceTimeout,
		searchPrefix:  cfg.SearchPrefix,
	}
}

// Resolve turns a query into candidate tracks. URLs resolve without
// disambiguation (playlists expand fully, in order); free text searches
// the default provider and needs a choice when more than one candidate
// comes back.
func (r *ResolverService) Resolve(ctx context.Context, query string) (*Resolution, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrNoResults
	}

	if u := parseTrackURL(query); u != nil {
		host := normalizeHost(u.Host)

		if _, ok := r.linkedHosts[host]; ok {
			return r.resolveLinked(ctx, u)
		}
		if _, ok := r.blockedHosts[host]; ok {
			return nil, ErrUnsupportedSource
		}
		return r.resolveDirect(ctx, query)
	}

	return r.resolveSearch(ctx, query)
}

// Choose runs the disambiguation protocol for a resolution that needs
// one: wait for the requester's next reply in the reply channel, which
// must be a 1-based index into the candidate list or a cancel keyword.
// Other replies are ignored until the window elapses.
func (r *ResolverService) Choose(
	ctx context.Context,
	channelID, userID snowflake.ID,
	candidates []domain.Track,
) (*domain.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, r.choiceTimeout)
	defer cancel()

	accept := func(content string) bool {
		return parseChoice(content, len(candidates)) != 0
	}

	reply, err := r.collector.AwaitReply(ctx, channelID, userID, accept)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrSelectionTimeout
		}
		return nil, ErrSelectionCancelled
	}

	choice := parseChoice(reply, len(candidates))
	if choice < 0 {
		return nil, ErrSelectionCancelled
	}
	track := candidates[choice-1]
	return &track, nil
}

// resolveLinked handles catalog-only providers: classify the URL into
// track vs collection, expand, then cross-resolve every item through
// keyword search to find a streamable equivalent.
func (r *ResolverService) resolveLinked(ctx context.Context, u *url.URL) (*Resolution, error) {
	if r.catalog == nil {
		return nil, ErrUnsupportedSource
	}

	kind, id := classifyLinkedPath(u.Path)
	if kind == linkedOther || id == "" {
		return nil, ErrUnsupportedSource
	}

	var (
		entries []ports.CatalogEntry
		err     error
	)
	switch kind {
	case linkedTrack:
		var entry *ports.CatalogEntry
		entry, err = r.catalog.Track(ctx, id)
		if entry != nil {
			entries = []ports.CatalogEntry{*entry}
		}
	case linkedAlbum:
		entries, err = r.catalog.Album(ctx, id)
	case linkedPlaylist:
		entries, err = r.catalog.Playlist(ctx, id)
	}
	if err != nil {
		if errors.Is(err, ports.ErrNestedCollection) {
			return nil, ErrUnsupportedSource
		}
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoResults
	}

	tracks := make([]domain.Track, 0, len(entries))
	for _, entry := range entries {
		track, err := r.crossResolve(ctx, entry)
		if err != nil {
			slog.Debug("no streamable equivalent for catalog entry",
				"title", entry.Title,
				"author", entry.Author,
				"error", err,
			)
			continue
		}
		tracks = append(tracks, *track)
	}
	if len(tracks) == 0 {
		return nil, ErrNoResults
	}

	return &Resolution{Tracks: tracks}, nil
}

// resolveDirect loads a directly streamable URL: playlists expand fully
// into an ordered list, anything else resolves to the single track it
// names.
func (r *ResolverService) resolveDirect(ctx context.Context, rawURL string) (*Resolution, error) {
	result, err := r.searcher.Load(ctx, rawURL)
	if err != nil {
		return nil, ErrNodeUnavailable
	}

	switch result.Kind {
	case ports.LoadKindPlaylist:
		tracks := make([]domain.Track, len(result.Tracks))
		for i, track := range result.Tracks {
			track.Provider = domain.ProviderPlaylist
			tracks[i] = track
		}
		return &Resolution{Tracks: tracks}, nil

	case ports.LoadKindTrack, ports.LoadKindSearch:
		if len(result.Tracks) == 0 {
			return nil, ErrNoResults
		}
		track := result.Tracks[0]
		track.Provider = domain.ProviderDirect
		return &Resolution{Tracks: []domain.Track{track}}, nil

	default:
		return nil, ErrNoResults
	}
}

// resolveSearch runs a keyword search against the default provider.
func (r *ResolverService) resolveSearch(ctx context.Context, query string) (*Resolution, error) {
	result, err := r.searcher.Load(ctx, r.searchPrefix+query)
	if err != nil {
		return nil, ErrNodeUnavailable
	}
	if result.Kind == ports.LoadKindEmpty || result.Kind == ports.LoadKindError ||
		len(result.Tracks) == 0 {
		return nil, ErrNoResults
	}

	candidates := result.Tracks
	if len(candidates) > r.maxChoices {
		candidates = candidates[:r.maxChoices]
	}
	tracks := make([]domain.Track, len(candidates))
	for i, track := range candidates {
		track.Provider = domain.ProviderSearch
		tracks[i] = track
	}

	return &Resolution{
		Tracks:      tracks,
		NeedsChoice: len(tracks) > 1,
	}, nil
}

// crossResolve finds a streamable equivalent for a catalog entry via
// keyword search, taking the top hit.
func (r *ResolverService) crossResolve(
	ctx context.Context,
	entry ports.CatalogEntry,
) (*domain.Track, error) {
	query := entry.Title
	if entry.Author != "" {
		query = entry.Author + " - " + entry.Title
	}

	result, err := r.searcher.Load(ctx, r.searchPrefix+query)
	if err != nil {
		return nil, ErrNodeUnavailable
	}
	if len(result.Tracks) == 0 {
		return nil, ErrNoResults
	}

	track := result.Tracks[0]
	track.Provider = domain.ProviderLinked
	return &track, nil
}

// parseChoice interprets a disambiguation reply: a positive value is a
// valid 1-based index, -1 is a cancel keyword, 0 means the reply should
// be ignored.
func parseChoice(content string, candidates int) int {
	content = strings.ToLower(strings.TrimSpace(content))
	if _, ok := cancelWords[content]; ok {
		return -1
	}
	n, err := strconv.Atoi(content)
	if err != nil || n < 1 || n > candidates {
		return 0
	}
	return n
}

// parseTrackURL returns the parsed URL if the query looks like one.
func parseTrackURL(query string) *url.URL {
	if !strings.HasPrefix(query, "http://") && !strings.HasPrefix(query, "https://") {
		return nil
	}
	u, err := url.Parse(query)
	if err != nil || u.Host == "" {
		return nil
	}
	return u
}

func normalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// classifyLinkedPath maps a linked-service URL path to its kind and
// item ID. Locale segments (e.g. /intl-ja/track/...) are skipped.
func classifyLinkedPath(path string) (linkedKind, string) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		switch segments[i] {
		case "track":
			return linkedTrack, segments[i+1]
		case "album":
			return linkedAlbum, segments[i+1]
		case "playlist":
			return linkedPlaylist, segments[i+1]
		}
	}
	return linkedOther, ""
}
