package usecases

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/altafio/muzebot/internal/modules/music/application/ports"
	"github.com/altafio/muzebot/internal/modules/music/domain"
)

func mockTrack(title string) domain.Track {
	return domain.Track{
		Title:    title,
		Author:   "Artist",
		Duration: 3 * time.Minute,
		Encoded:  "encoded-" + title,
		URI:      "https://tracks.example/" + title,
		Provider: domain.ProviderDirect,
	}
}

type mockStore struct {
	sessions map[snowflake.ID]*domain.GuildSession
	deleted  []snowflake.ID
}

func newMockStore() *mockStore {
	return &mockStore{sessions: make(map[snowflake.ID]*domain.GuildSession)}
}

func (m *mockStore) GetOrCreate(guildID, creatorID snowflake.ID) (*domain.GuildSession, bool) {
	if session, ok := m.sessions[guildID]; ok {
		return session, false
	}
	session := domain.NewGuildSession(guildID, creatorID)
	m.sessions[guildID] = session
	return session, true
}

func (m *mockStore) Get(guildID snowflake.ID) *domain.GuildSession {
	return m.sessions[guildID]
}

func (m *mockStore) Delete(guildID snowflake.ID) {
	m.deleted = append(m.deleted, guildID)
	delete(m.sessions, guildID)
}

// createSession seeds a connected session with the given IDs. Returns
// the session for further setup (queueing tracks, setting current).
func (m *mockStore) createSession(guildID, djID, voiceChannelID snowflake.ID) *domain.GuildSession {
	session := domain.NewGuildSession(guildID, djID)
	session.SetVoiceChannel(voiceChannelID)
	session.SetPhase(domain.PhaseIdle)
	m.sessions[guildID] = session
	return session
}

type mockAudioNode struct {
	connectErr    error
	playErr       error
	stopErr       error
	setVolumeErr  error
	disconnectErr error

	played       []string // encoded payloads in play order
	stopped      []snowflake.ID
	disconnected []snowflake.ID
	volumes      []int
}

func (m *mockAudioNode) Connect(_ context.Context, _, _ snowflake.ID) error {
	return m.connectErr
}

func (m *mockAudioNode) Play(_ context.Context, _ snowflake.ID, encoded string) error {
	if m.playErr != nil {
		return m.playErr
	}
	m.played = append(m.played, encoded)
	return nil
}

func (m *mockAudioNode) Stop(_ context.Context, guildID snowflake.ID) error {
	if m.stopErr != nil {
		return m.stopErr
	}
	m.stopped = append(m.stopped, guildID)
	return nil
}

func (m *mockAudioNode) SetVolume(_ context.Context, _ snowflake.ID, volume int) error {
	if m.setVolumeErr != nil {
		return m.setVolumeErr
	}
	m.volumes = append(m.volumes, volume)
	return nil
}

func (m *mockAudioNode) Disconnect(_ context.Context, guildID snowflake.ID) error {
	if m.disconnectErr != nil {
		return m.disconnectErr
	}
	m.disconnected = append(m.disconnected, guildID)
	return nil
}

type mockVoiceStateProvider struct {
	channels  map[snowflake.ID]snowflake.ID // userID -> channelID
	listeners int
	err       error
}

func (m *mockVoiceStateProvider) UserVoiceChannel(_, userID snowflake.ID) (snowflake.ID, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.channels[userID], nil
}

func (m *mockVoiceStateProvider) ListenerCount(_, _ snowflake.ID) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.listeners, nil
}

type mockPermissionProvider struct {
	elevated map[snowflake.ID]bool
	members  map[snowflake.ID]bool
	err      error
}

func (m *mockPermissionProvider) IsElevated(_, userID snowflake.ID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.elevated[userID], nil
}

func (m *mockPermissionProvider) IsMember(_, userID snowflake.ID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.members[userID], nil
}

type mockNotifier struct {
	announced []domain.QueuedTrack
	err       error
}

func (m *mockNotifier) AnnounceNowPlaying(_ snowflake.ID, track *domain.QueuedTrack) error {
	if m.err != nil {
		return m.err
	}
	m.announced = append(m.announced, *track)
	return nil
}

type mockSearcher struct {
	results map[string]*ports.LoadResult
	err     error
	queries []string
}

func (m *mockSearcher) Load(_ context.Context, query string) (*ports.LoadResult, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	if result, ok := m.results[query]; ok {
		return result, nil
	}
	return &ports.LoadResult{Kind: ports.LoadKindEmpty}, nil
}

type mockCatalog struct {
	tracks    map[string]*ports.CatalogEntry
	albums    map[string][]ports.CatalogEntry
	playlists map[string][]ports.CatalogEntry
	err       error
}

func (m *mockCatalog) Track(_ context.Context, id string) (*ports.CatalogEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	if entry, ok := m.tracks[id]; ok {
		return entry, nil
	}
	return nil, ErrNoResults
}

func (m *mockCatalog) Album(_ context.Context, id string) ([]ports.CatalogEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.albums[id], nil
}

func (m *mockCatalog) Playlist(_ context.Context, id string) ([]ports.CatalogEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.playlists[id], nil
}

// mockCollector replies with a fixed message, or blocks until the
// context expires when reply is empty.
type mockCollector struct {
	reply string
}

func (m *mockCollector) AwaitReply(
	ctx context.Context,
	_, _ snowflake.ID,
	accept func(string) bool,
) (string, error) {
	if m.reply != "" && accept(m.reply) {
		return m.reply, nil
	}
	<-ctx.Done()
	return "", ctx.Err()
}
