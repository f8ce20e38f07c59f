package infrastructure

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/altafio/muzebot/internal/modules/music/application/ports"
	"github.com/altafio/muzebot/internal/modules/music/domain"
)

const colorBlue = 0x3498DB

// DiscordNotifier posts playback announcements as embeds to the text
// channel a track was requested from.
type DiscordNotifier struct {
	session *discordgo.Session
}

// NewDiscordNotifier creates a DiscordNotifier.
func NewDiscordNotifier(session *discordgo.Session) *DiscordNotifier {
	return &DiscordNotifier{session: session}
}

// AnnounceNowPlaying sends a "Now Playing" embed.
func (n *DiscordNotifier) AnnounceNowPlaying(
	channelID snowflake.ID,
	track *domain.QueuedTrack,
) error {
	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name: "Now Playing",
		},
		Title:     track.Title,
		URL:       track.URI,
		Color:     colorBlue,
		Timestamp: track.EnqueuedAt.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Artist",
				Value:  track.Author,
				Inline: true,
			},
			{
				Name:   "Duration",
				Value:  track.FormattedDuration(),
				Inline: true,
			},
		},
		// Mentions render in the description but not in footers.
		Description: fmt.Sprintf("Requested by <@%s>", track.RequesterID),
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

// Ensure DiscordNotifier implements ports.Notifier.
var _ ports.Notifier = (*DiscordNotifier)(nil)
