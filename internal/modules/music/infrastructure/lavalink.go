package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"

	"github.com/altafio/muzebot/internal/modules/music/application/events"
	"github.com/altafio/muzebot/internal/modules/music/application/ports"
	"github.com/altafio/muzebot/internal/modules/music/domain"
)

// voiceHandshakeTimeout bounds the wait for Discord's voice handshake
// to complete when connecting a channel.
const voiceHandshakeTimeout = 10 * time.Second

// voiceHandshake tracks an in-flight voice connection: the handshake is
// complete once both VoiceStateUpdate and VoiceServerUpdate arrived.
type voiceHandshake struct {
	mu        sync.Mutex
	gotState  bool
	gotServer bool
	done      chan struct{}
}

func (h *voiceHandshake) observe(isState bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if isState {
		h.gotState = true
	} else {
		h.gotServer = true
	}
	if h.gotState && h.gotServer {
		select {
		case <-h.done:
		default:
			close(h.done)
		}
	}
}

// voiceUpdateBuffer pairs the two Discord voice events before they are
// forwarded, so an out-of-order arrival never hands the node a partial
// voice state.
type voiceUpdateBuffer struct {
	mu sync.Mutex

	gotState  bool
	channelID *snowflake.ID
	sessionID string

	gotServer bool
	token     string
	endpoint  string
}

func (b *voiceUpdateBuffer) putState(channelID *snowflake.ID, sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gotState = true
	b.channelID = channelID
	b.sessionID = sessionID
	return b.gotState && b.gotServer
}

func (b *voiceUpdateBuffer) putServer(token, endpoint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gotServer = true
	b.token = token
	b.endpoint = endpoint
	return b.gotState && b.gotServer
}

// take returns the paired data and resets the buffer.
func (b *voiceUpdateBuffer) take() (channelID *snowflake.ID, sessionID, token, endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channelID = b.channelID
	sessionID = b.sessionID
	token = b.token
	endpoint = b.endpoint

	b.gotState = false
	b.channelID = nil
	b.sessionID = ""
	b.gotServer = false
	b.token = ""
	b.endpoint = ""
	return
}

// LavalinkNode adapts a Lavalink node behind DisGoLink to the audio
// node and track searcher ports.
type LavalinkNode struct {
	link    disgolink.Client
	session *discordgo.Session
	botID   snowflake.ID

	handshakeMu sync.Mutex
	handshakes  map[snowflake.ID]*voiceHandshake

	bufferMu sync.Mutex
	buffers  map[snowflake.ID]*voiceUpdateBuffer

	bus *events.Bus
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
}

// NewLavalinkNode creates a LavalinkNode and connects the configured
// Lavalink node. The bus receives node lifecycle events.
func NewLavalinkNode(
	session *discordgo.Session,
	config LavalinkConfig,
	bus *events.Bus,
) (*LavalinkNode, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	adapter := &LavalinkNode{
		session:    session,
		botID:      botID,
		handshakes: make(map[snowflake.ID]*voiceHandshake),
		buffers:    make(map[snowflake.ID]*voiceUpdateBuffer),
		bus:        bus,
	}

	link := disgolink.New(botID,
		disgolink.WithListenerFunc(adapter.onTrackStart),
		disgolink.WithListenerFunc(adapter.onTrackEnd),
		disgolink.WithListenerFunc(adapter.onTrackException),
		disgolink.WithListenerFunc(adapter.onTrackStuck),
	)
	adapter.link = link

	node, err := link.AddNode(context.Background(), disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)
	bus.PublishNodeReady(events.NodeReadyEvent{Node: node.Config().Name})

	return adapter, nil
}

// Connect joins a voice channel and waits for the full voice handshake
// before returning.
func (c *LavalinkNode) Connect(ctx context.Context, guildID, channelID snowflake.ID) error {
	handshake := &voiceHandshake{done: make(chan struct{})}

	c.handshakeMu.Lock()
	c.handshakes[guildID] = handshake
	c.handshakeMu.Unlock()

	defer func() {
		c.handshakeMu.Lock()
		delete(c.handshakes, guildID)
		c.handshakeMu.Unlock()
	}()

	err := c.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, false)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-handshake.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(voiceHandshakeTimeout):
		return fmt.Errorf("timeout waiting for voice connection")
	}
}

// Disconnect destroys the player and leaves the voice channel.
func (c *LavalinkNode) Disconnect(ctx context.Context, guildID snowflake.ID) error {
	if player := c.link.ExistingPlayer(guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	if err := c.session.ChannelVoiceJoinManual(guildID.String(), "", false, false); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// Play starts streaming an encoded track.
func (c *LavalinkNode) Play(ctx context.Context, guildID snowflake.ID, encoded string) error {
	player := c.link.Player(guildID)

	// WithEncodedTrack avoids the userData:null update issue.
	if err := player.Update(ctx, lavalink.WithEncodedTrack(encoded)); err != nil {
		return fmt.Errorf("failed to play track: %w", err)
	}
	return nil
}

// Stop ends the current stream. The node reports the end through the
// usual track-ended event.
func (c *LavalinkNode) Stop(ctx context.Context, guildID snowflake.ID) error {
	player := c.link.Player(guildID)

	if err := player.Update(ctx, lavalink.WithNullTrack()); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	return nil
}

// SetVolume adjusts the player volume, 0-100.
func (c *LavalinkNode) SetVolume(ctx context.Context, guildID snowflake.ID, volume int) error {
	player := c.link.Player(guildID)

	if err := player.Update(ctx, lavalink.WithVolume(volume)); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	return nil
}

// Load resolves a query (URL or prefixed search) through the node.
func (c *LavalinkNode) Load(ctx context.Context, query string) (*ports.LoadResult, error) {
	node := c.link.BestNode()
	if node == nil {
		return nil, fmt.Errorf("no available Lavalink node")
	}

	result, err := node.LoadTracks(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	return convertLoadResult(result), nil
}

func convertLoadResult(result *lavalink.LoadResult) *ports.LoadResult {
	switch data := result.Data.(type) {
	case lavalink.Track:
		return &ports.LoadResult{
			Kind:   ports.LoadKindTrack,
			Tracks: []domain.Track{convertTrack(data)},
		}

	case lavalink.Playlist:
		tracks := make([]domain.Track, len(data.Tracks))
		for i, track := range data.Tracks {
			tracks[i] = convertTrack(track)
		}
		return &ports.LoadResult{
			Kind:         ports.LoadKindPlaylist,
			Tracks:       tracks,
			PlaylistName: data.Info.Name,
		}

	case lavalink.Search:
		tracks := make([]domain.Track, len(data))
		for i, track := range data {
			tracks[i] = convertTrack(track)
		}
		return &ports.LoadResult{
			Kind:   ports.LoadKindSearch,
			Tracks: tracks,
		}

	case lavalink.Exception:
		return &ports.LoadResult{Kind: ports.LoadKindError}

	default:
		return &ports.LoadResult{Kind: ports.LoadKindEmpty}
	}
}

func convertTrack(track lavalink.Track) domain.Track {
	info := track.Info
	uri := ""
	if info.URI != nil {
		uri = *info.URI
	}

	return domain.Track{
		Title:    info.Title,
		Author:   info.Author,
		Duration: time.Duration(info.Length) * time.Millisecond,
		Encoded:  track.Encoded,
		URI:      uri,
		IsStream: info.IsStream,
	}
}

// OnVoiceServerUpdate forwards a Discord voice server update. Must be
// wired to the Discord event handler.
func (c *LavalinkNode) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	buffer := c.voiceBuffer(guildID)
	if buffer.putServer(event.Token, event.Endpoint) {
		c.flushVoiceBuffer(guildID, buffer)
	}

	c.handshakeMu.Lock()
	handshake := c.handshakes[guildID]
	c.handshakeMu.Unlock()
	if handshake != nil {
		handshake.observe(false)
	}
}

// OnVoiceStateUpdate forwards a Discord voice state update for the bot
// user. Must be wired to the Discord event handler.
func (c *LavalinkNode) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != c.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	var channelID *snowflake.ID
	if event.ChannelID != "" {
		id, err := snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
		channelID = &id
	}

	// A nil channel means the bot is leaving; no server update follows.
	if channelID == nil {
		c.link.OnVoiceStateUpdate(context.Background(), guildID, nil, event.SessionID)
		c.dropVoiceBuffer(guildID)
		return
	}

	buffer := c.voiceBuffer(guildID)
	if buffer.putState(channelID, event.SessionID) {
		c.flushVoiceBuffer(guildID, buffer)
	}

	c.handshakeMu.Lock()
	handshake := c.handshakes[guildID]
	c.handshakeMu.Unlock()
	if handshake != nil {
		handshake.observe(true)
	}
}

func (c *LavalinkNode) voiceBuffer(guildID snowflake.ID) *voiceUpdateBuffer {
	c.bufferMu.Lock()
	defer c.bufferMu.Unlock()

	buffer, exists := c.buffers[guildID]
	if !exists {
		buffer = &voiceUpdateBuffer{}
		c.buffers[guildID] = buffer
	}
	return buffer
}

func (c *LavalinkNode) dropVoiceBuffer(guildID snowflake.ID) {
	c.bufferMu.Lock()
	defer c.bufferMu.Unlock()
	delete(c.buffers, guildID)
}

// flushVoiceBuffer hands the paired voice events to the node, state
// first.
func (c *LavalinkNode) flushVoiceBuffer(guildID snowflake.ID, buffer *voiceUpdateBuffer) {
	channelID, sessionID, token, endpoint := buffer.take()

	slog.Debug("forwarding voice handshake to Lavalink",
		"guild", guildID,
		"channel", channelID,
	)

	c.link.OnVoiceStateUpdate(context.Background(), guildID, channelID, sessionID)
	c.link.OnVoiceServerUpdate(context.Background(), guildID, token, endpoint)
}

func (c *LavalinkNode) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	c.bus.PublishTrackStarted(events.TrackStartedEvent{
		GuildID: player.GuildID(),
		Title:   event.Track.Info.Title,
	})
}

func (c *LavalinkNode) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	// Replaced means a new play request took over; the controller
	// already committed the new track, so no transition is owed.
	if event.Reason == lavalink.TrackEndReasonReplaced {
		slog.Debug("track replaced", "guild", player.GuildID())
		return
	}

	c.bus.PublishTrackEnded(events.TrackEndedEvent{
		GuildID: player.GuildID(),
		Reason:  string(event.Reason),
	})
}

func (c *LavalinkNode) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)
}

func (c *LavalinkNode) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)
}

// Ensure LavalinkNode implements the port interfaces.
var (
	_ ports.AudioNode     = (*LavalinkNode)(nil)
	_ ports.TrackSearcher = (*LavalinkNode)(nil)
)
