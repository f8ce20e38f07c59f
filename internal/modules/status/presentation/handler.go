package presentation

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/altafio/muzebot/internal/bot"
	"github.com/altafio/muzebot/internal/modules/status/application"
)

// PingHandler handles the /ping command.
type PingHandler struct {
	interactor *application.HealthInteractor
}

// NewPingHandler creates a new PingHandler.
func NewPingHandler(interactor *application.HealthInteractor) *PingHandler {
	return &PingHandler{interactor: interactor}
}

// Handle responds with the current gateway latency and uptime.
func (h *PingHandler) Handle(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	report := h.interactor.Execute()

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf(
				"Pong! Gateway latency: %s, uptime: %s",
				report.FormatLatency(),
				report.FormatUptime(),
			),
		},
	})
}
