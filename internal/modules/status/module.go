package status

import (
	"github.com/bwmarrin/discordgo"

	"github.com/altafio/muzebot/internal/bot"
	"github.com/altafio/muzebot/internal/modules/status/application"
	"github.com/altafio/muzebot/internal/modules/status/presentation"
)

func init() {
	bot.Register(&Module{})
}

// Module exposes bot health commands like /ping.
type Module struct {
	pingHandler *presentation.PingHandler
}

// Name returns the module name.
func (m *Module) Name() string {
	return "status"
}

// Commands returns the slash commands for this module.
func (m *Module) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Show gateway latency and uptime",
		},
	}
}

// CommandHandlers returns the command handlers for this module.
func (m *Module) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"ping": m.pingHandler.Handle,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *Module) EventHandlers() []bot.EventHandler {
	return nil
}

// Init initializes the module.
func (m *Module) Init(deps bot.ModuleDependencies) error {
	interactor := application.NewHealthInteractor(deps.Session.HeartbeatLatency)
	m.pingHandler = presentation.NewPingHandler(interactor)
	return nil
}

// Shutdown cleans up module resources.
func (m *Module) Shutdown() error {
	return nil
}
