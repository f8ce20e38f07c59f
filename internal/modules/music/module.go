package music

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"

	"github.com/altafio/muzebot/internal/bot"
	"github.com/altafio/muzebot/internal/modules/music/application/events"
	"github.com/altafio/muzebot/internal/modules/music/application/ports"
	"github.com/altafio/muzebot/internal/modules/music/application/usecases"
	"github.com/altafio/muzebot/internal/modules/music/infrastructure"
	"github.com/altafio/muzebot/internal/modules/music/presentation"
)

func init() {
	bot.Register(&Module{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*Module)(nil)

// Module provides per-guild music playback: queueing, vote skip, DJ
// control and voice session lifecycle on top of a Lavalink node.
type Module struct {
	config   *Config
	handlers *presentation.Handlers

	store     *infrastructure.MemoryStore
	node      *infrastructure.LavalinkNode
	collector *infrastructure.MessageCollector
	playback  *usecases.PlaybackService

	eventBus  *events.Bus
	nodeEvent *events.NodeEventHandler

	ctx    context.Context
	cancel context.CancelFunc
}

// Name returns the module name.
func (m *Module) Name() string {
	return "music"
}

// Commands returns the slash commands for this module.
func (m *Module) Commands() []*discordgo.ApplicationCommand {
	return presentation.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *Module) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"join":       m.handlers.HandleJoin,
		"play":       m.handlers.HandlePlay,
		"stop":       m.handlers.HandleStop,
		"leave":      m.handlers.HandleLeave,
		"skip":       m.handlers.HandleSkip,
		"nowplaying": m.handlers.HandleNowPlaying,
		"volume":     m.handlers.HandleVolume,
		"queue":      m.handlers.HandleQueue,
		"repeat":     m.handlers.HandleRepeat,
		"dj":         m.handlers.HandleDJ,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *Module) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(_ *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			if m.node != nil {
				m.node.OnVoiceServerUpdate(event)
			}
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.handleVoiceStateUpdate(s, event)
		},
		func(s *discordgo.Session, event *discordgo.MessageCreate) {
			if m.collector != nil {
				m.collector.HandleMessageCreate(s, event)
			}
		},
	}
}

// LoadConfig loads module-specific configuration from environment
// variables.
func (m *Module) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init wires the module against a live Discord session.
func (m *Module) Init(deps bot.ModuleDependencies) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.eventBus = events.NewBus(events.DefaultBufferSize)

	node, err := infrastructure.NewLavalinkNode(deps.Session, infrastructure.LavalinkConfig{
		Address:  m.config.LavalinkAddress,
		Password: m.config.LavalinkPassword,
	}, m.eventBus)
	if err != nil {
		return err
	}
	m.node = node

	m.store = infrastructure.NewMemoryStore()
	m.collector = infrastructure.NewMessageCollector()
	state := infrastructure.NewDiscordStateProvider(deps.Session)
	notifier := infrastructure.NewDiscordNotifier(deps.Session)

	// The linked-host set stays wired even without a catalog, so
	// Spotify URLs resolve as unsupported rather than falling through
	// to a direct load that cannot succeed.
	linkedHosts := []string{"open.spotify.com"}
	var catalog ports.Catalog
	if m.config.SpotifyClientID != "" && m.config.SpotifyClientSecret != "" {
		spotifyCatalog, err := infrastructure.NewSpotifyCatalog(infrastructure.SpotifyConfig{
			ClientID:     m.config.SpotifyClientID,
			ClientSecret: m.config.SpotifyClientSecret,
		})
		if err != nil {
			return err
		}
		catalog = spotifyCatalog
	} else {
		slog.Info("spotify credentials not set, spotify links disabled")
	}

	m.playback = usecases.NewPlaybackService(
		m.store,
		node,
		state,
		state,
		notifier,
		m.config.IdleTimeout,
	)
	resolver := usecases.NewResolverService(node, catalog, m.collector, usecases.ResolverConfig{
		LinkedHosts:   linkedHosts,
		ChoiceTimeout: m.config.ChoiceTimeout,
	})
	queue := usecases.NewQueueService(m.store, state)
	dj := usecases.NewDJService(m.store, state)

	m.nodeEvent = events.NewNodeEventHandler(m.playback.HandleTrackEnd, m.eventBus)
	m.nodeEvent.Start(m.ctx)

	m.handlers = presentation.NewHandlers(deps.Session, m.playback, resolver, queue, dj)

	slog.Info("music module initialized")
	return nil
}

// Shutdown cleans up module resources.
func (m *Module) Shutdown() error {
	if m.cancel != nil {
		m.cancel()
	}
	if m.nodeEvent != nil {
		m.nodeEvent.Stop()
	}
	if m.eventBus != nil {
		m.eventBus.Close()
	}
	return nil
}

// handleVoiceStateUpdate forwards voice state to the node adapter and
// tears the session down if the bot was disconnected externally.
func (m *Module) handleVoiceStateUpdate(
	s *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if m.node == nil {
		return
	}
	m.node.OnVoiceStateUpdate(event)

	if s.State.User == nil || event.UserID != s.State.User.ID {
		return
	}
	// The bot left a channel it did not ask to leave: a moderator drag
	// or kick. Normal teardown already deleted the session, so this is
	// a no-op in that case.
	if event.ChannelID == "" {
		guildID, err := snowflake.Parse(event.GuildID)
		if err != nil {
			return
		}
		m.playback.HandleNodeDisconnect(guildID)
	}
}
