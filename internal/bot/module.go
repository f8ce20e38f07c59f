package bot

import "github.com/bwmarrin/discordgo"

// InteractionHandler handles a slash command interaction and responds
// through the given Responder.
type InteractionHandler func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error

// EventHandler is a gateway event handler. It must be a function
// matching one of discordgo's handler signatures, e.g.
// func(s *discordgo.Session, m *discordgo.MessageCreate); the session
// validates the shape when the handler is added.
type EventHandler any

// ModuleDependencies provides the shared resources a module receives
// at initialization. The session is open and its state populated by
// the time Init runs.
type ModuleDependencies struct {
	Session *discordgo.Session
}

// Module is one self-contained feature of the bot, like music playback
// or the status commands. Modules register themselves with the global
// registry from init().
type Module interface {
	// Name returns the unique identifier for this module.
	Name() string

	// Commands returns the slash commands that this module provides.
	Commands() []*discordgo.ApplicationCommand

	// CommandHandlers returns a map of command names to their handlers.
	CommandHandlers() map[string]InteractionHandler

	// EventHandlers returns gateway event handlers for this module.
	// They are registered before the connection opens and therefore
	// before Init, so each handler must tolerate an uninitialized
	// module.
	EventHandlers() []EventHandler

	// Init initializes the module with the provided dependencies.
	Init(deps ModuleDependencies) error

	// Shutdown gracefully shuts down the module.
	Shutdown() error
}

// ConfigurableModule is an optional interface for modules carrying
// their own configuration. LoadConfig runs before the Discord
// connection is established and before Init, so a misconfigured module
// aborts startup early.
type ConfigurableModule interface {
	// LoadConfig loads and validates module-specific configuration.
	LoadConfig() error
}
