package presentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/altafio/muzebot/internal/bot"
	"github.com/altafio/muzebot/internal/modules/music/application/usecases"
	"github.com/altafio/muzebot/internal/modules/music/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
	colorNeutral = 0x3498DB
)

// Handlers holds all the command handlers.
type Handlers struct {
	session  *discordgo.Session
	playback *usecases.PlaybackService
	resolver *usecases.ResolverService
	queue    *usecases.QueueService
	dj       *usecases.DJService
}

// NewHandlers creates new Handlers.
func NewHandlers(
	session *discordgo.Session,
	playback *usecases.PlaybackService,
	resolver *usecases.ResolverService,
	queue *usecases.QueueService,
	dj *usecases.DJService,
) *Handlers {
	return &Handlers{
		session:  session,
		playback: playback,
		resolver: resolver,
		queue:    queue,
		dj:       dj,
	}
}

// interactionIDs are the snowflakes every handler needs.
type interactionIDs struct {
	guildID   snowflake.ID
	userID    snowflake.ID
	channelID snowflake.ID
}

func parseInteractionIDs(i *discordgo.InteractionCreate) (interactionIDs, error) {
	if i.Member == nil || i.Member.User == nil {
		return interactionIDs{}, errors.New("interaction outside a guild")
	}

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return interactionIDs{}, fmt.Errorf("invalid guild ID: %w", err)
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return interactionIDs{}, fmt.Errorf("invalid user ID: %w", err)
	}
	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return interactionIDs{}, fmt.Errorf("invalid channel ID: %w", err)
	}

	return interactionIDs{guildID: guildID, userID: userID, channelID: channelID}, nil
}

// HandleJoin handles the /join command.
func (h *Handlers) HandleJoin(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteractionIDs(i)
	if err != nil {
		return respondError(r, "This command only works in a server.")
	}

	output, err := h.playback.Join(context.Background(), usecases.JoinInput{
		GuildID: ids.guildID,
		UserID:  ids.userID,
	})
	if err != nil {
		return respondError(r, friendlyError(err))
	}

	return respondEmbed(r, fmt.Sprintf("Connected to <#%d>.", output.VoiceChannelID), colorSuccess)
}

// HandlePlay handles the /play command. When a free-text search returns
// several candidates the handler presents them and waits for the
// requester's numbered reply before enqueueing.
func (h *Handlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, err := parseInteractionIDs(i)
	if err != nil {
		return respondError(r, "This command only works in a server.")
	}

	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}

	resolution, err := h.resolver.Resolve(ctx, query)
	if err != nil {
		return respondError(r, friendlyError(err))
	}

	if !resolution.NeedsChoice {
		output, err := h.playback.Enqueue(ctx, usecases.EnqueueInput{
			GuildID:        ids.guildID,
			UserID:         ids.userID,
			ReplyChannelID: ids.channelID,
			Tracks:         resolution.Tracks,
		})
		if err != nil {
			return respondError(r, friendlyError(err))
		}
		return respondEnqueued(r, output)
	}

	// Present the candidates as the interaction response, then wait for
	// the requester's reply in the channel.
	if err := respondChoices(r, resolution.Tracks); err != nil {
		return err
	}

	track, err := h.resolver.Choose(ctx, ids.channelID, ids.userID, resolution.Tracks)
	if err != nil {
		h.sendEmbed(ids.channelID, friendlyError(err), colorError)
		return nil
	}

	output, err := h.playback.Enqueue(ctx, usecases.EnqueueInput{
		GuildID:        ids.guildID,
		UserID:         ids.userID,
		ReplyChannelID: ids.channelID,
		Tracks:         []domain.Track{*track},
	})
	if err != nil {
		h.sendEmbed(ids.channelID, friendlyError(err), colorError)
		return nil
	}

	// The interaction is already answered; confirm with a channel send.
	h.sendEmbed(ids.channelID, enqueuedMessage(output), colorSuccess)
	return nil
}

// HandleStop handles the /stop command.
func (h *Handlers) HandleStop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.handleTeardown(i, r, "Stopped playback and cleared the queue.")
}

// HandleLeave handles the /leave command.
func (h *Handlers) HandleLeave(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.handleTeardown(i, r, "Disconnected.")
}

func (h *Handlers) handleTeardown(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	confirmation string,
) error {
	ids, err := parseInteractionIDs(i)
	if err != nil {
		return respondError(r, "This command only works in a server.")
	}

	err = h.playback.Stop(context.Background(), usecases.StopInput{
		GuildID: ids.guildID,
		UserID:  ids.userID,
	})
	if err != nil {
		return respondError(r, friendlyError(err))
	}

	return respondEmbed(r, confirmation, colorSuccess)
}

// HandleSkip handles the /skip command.
func (h *Handlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteractionIDs(i)
	if err != nil {
		return respondError(r, "This command only works in a server.")
	}

	output, err := h.playback.Skip(context.Background(), usecases.SkipInput{
		GuildID: ids.guildID,
		UserID:  ids.userID,
	})
	if err != nil {
		return respondError(r, friendlyError(err))
	}

	if output.Skipped {
		return respondEmbed(r, fmt.Sprintf("Skipped **%s**.", output.Title), colorSuccess)
	}
	return respondEmbed(r,
		fmt.Sprintf("Vote to skip **%s** recorded (%d/%d).",
			output.Title, output.Votes, output.Required),
		colorNeutral,
	)
}

// HandleNowPlaying handles the /nowplaying command.
func (h *Handlers) HandleNowPlaying(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteractionIDs(i)
	if err != nil {
		return respondError(r, "This command only works in a server.")
	}

	output, err := h.playback.NowPlaying(ids.guildID)
	if err != nil {
		return respondError(r, friendlyError(err))
	}

	embed := &discordgo.MessageEmbed{
		Author:      &discordgo.MessageEmbedAuthor{Name: "Now Playing"},
		Title:       output.Track.Title,
		URL:         output.Track.URI,
		Color:       colorNeutral,
		Description: fmt.Sprintf("Requested by <@%d>", output.Track.RequesterID),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: output.Track.Author, Inline: true},
			{Name: "Duration", Value: output.Track.FormattedDuration(), Inline: true},
			{Name: "Volume", Value: fmt.Sprintf("%d", output.Volume), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Repeat: %s | %d pending", output.Repeat, output.Pending),
		},
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// HandleVolume handles the /volume command.
func (h *Handlers) HandleVolume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteractionIDs(i)
	if err != nil {
		return respondError(r, "This command only works in a server.")
	}

	var level int
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "level" {
			level = int(opt.IntValue())
		}
	}

	err = h.playback.SetVolume(context.Background(), usecases.SetVolumeInput{
		GuildID: ids.guildID,
		UserID:  ids.userID,
		Level:   level,
	})
	if err != nil {
		return respondError(r, friendlyError(err))
	}

	return respondEmbed(r, fmt.Sprintf("Volume set to %d.", level), colorSuccess)
}

// HandleQueue handles the /queue command.
func (h *Handlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return respondError(r, "Invalid subcommand")
	}

	subCmd := options[0]
	switch subCmd.Name {
	case "list":
		return h.handleQueueList(i, r, subCmd.Options)
	case "remove":
		return h.handleQueueRemove(i, r, subCmd.Options)
	case "clear":
		return h.handleQueueClear(i, r)
	default:
		return respondError(r, "Unknown subcommand")
	}
}

func (h *Handlers) handleQueueList(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) error {
	ids, err := parseInteractionIDs(i)
	if err != nil {
		return respondError(r, "This command only works in a server.")
	}

	page := 1
	for _, opt := range options {
		if opt.Name == "page" {
			page = int(opt.IntValue())
		}
	}

	output, err := h.queue.List(usecases.ListInput{GuildID: ids.guildID, Page: page})
	if err != nil {
		return respondError(r, friendlyError(err))
	}

	return respondQueueList(r, output)
}

func (h *Handlers) handleQueueRemove(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) error {
	ids, err := parseInteractionIDs(i)
	if err != nil {
		return respondError(r, "This command only works in a server.")
	}

	var position int
	for _, opt := range options {
		if opt.Name == "position" {
			position = int(opt.IntValue())
		}
	}

	removed, err := h.queue.Remove(context.Background(), usecases.RemoveInput{
		GuildID:  ids.guildID,
		UserID:   ids.userID,
		Position: position,
	})
	if err != nil {
		return respondError(r, friendlyError(err))
	}

	return respondEmbed(r, fmt.Sprintf("Removed **%s**.", removed.Title), colorSuccess)
}

func (h *Handlers) handleQueueClear(
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteractionIDs(i)
	if err != nil {
		return respondError(r, "This command only works in a server.")
	}

	dropped, err := h.queue.Clear(context.Background(), usecases.ClearInput{
		GuildID: ids.guildID,
		UserID:  ids.userID,
	})
	if err != nil {
		return respondError(r, friendlyError(err))
	}

	return respondEmbed(r, fmt.Sprintf("Cleared %d pending tracks.", dropped), colorSuccess)
}

// HandleRepeat handles the /repeat command.
func (h *Handlers) HandleRepeat(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteractionIDs(i)
	if err != nil {
		return respondError(r, "This command only works in a server.")
	}

	var mode string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "mode" {
			mode = opt.StringValue()
		}
	}

	set, err := h.playback.SetRepeat(usecases.SetRepeatInput{
		GuildID: ids.guildID,
		UserID:  ids.userID,
		Mode:    mode,
	})
	if err != nil {
		return respondError(r, friendlyError(err))
	}

	var description string
	switch set {
	case domain.RepeatSingle:
		description = "Now repeating the current track."
	case domain.RepeatAll:
		description = "Now repeating the whole queue."
	default:
		description = "Repeat disabled."
	}
	return respondEmbed(r, description, colorSuccess)
}

// HandleDJ handles the /dj command.
func (h *Handlers) HandleDJ(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteractionIDs(i)
	if err != nil {
		return respondError(r, "This command only works in a server.")
	}

	var targetID snowflake.ID
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "user" {
			if user := opt.UserValue(nil); user != nil {
				targetID, _ = snowflake.Parse(user.ID)
			}
		}
	}
	if targetID == 0 {
		return respondError(r, "Invalid user")
	}

	err = h.dj.Delegate(context.Background(), usecases.DelegateInput{
		GuildID:  ids.guildID,
		UserID:   ids.userID,
		TargetID: targetID,
	})
	if err != nil {
		return respondError(r, friendlyError(err))
	}

	return respondEmbed(r, fmt.Sprintf("<@%d> is now the DJ.", targetID), colorSuccess)
}

// sendEmbed posts a plain embed to a channel, for messages that follow
// an already-answered interaction.
func (h *Handlers) sendEmbed(channelID snowflake.ID, description string, color int) {
	_, err := h.session.ChannelMessageSendEmbed(channelID.String(), &discordgo.MessageEmbed{
		Description: description,
		Color:       color,
	})
	if err != nil {
		slog.Warn("failed to send channel message", "channel", channelID, "error", err)
	}
}

// friendlyError maps use case errors to user-facing wording.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, usecases.ErrNoVoiceChannel):
		return "Join a voice channel first."
	case errors.Is(err, usecases.ErrNotConnected):
		return "Not connected to a voice channel."
	case errors.Is(err, usecases.ErrNotPlaying):
		return "Nothing is playing."
	case errors.Is(err, usecases.ErrNoResults):
		return "No results found."
	case errors.Is(err, usecases.ErrUnsupportedSource):
		return "That source is not supported."
	case errors.Is(err, usecases.ErrSelectionTimeout):
		return "Selection timed out."
	case errors.Is(err, usecases.ErrSelectionCancelled):
		return "Selection cancelled."
	case errors.Is(err, usecases.ErrOutOfRange):
		return "That position is not in the queue."
	case errors.Is(err, usecases.ErrVolumeOutOfRange):
		return "Volume must be between 1 and 100."
	case errors.Is(err, usecases.ErrUnauthorized):
		return "Only the DJ or a moderator can do that."
	case errors.Is(err, usecases.ErrNotAMember):
		return "That user is not a member of this server."
	case errors.Is(err, usecases.ErrQueueEmpty):
		return "The queue is empty."
	case errors.Is(err, usecases.ErrNodeUnavailable):
		return "The audio backend is unavailable. Try again shortly."
	default:
		return "Something went wrong."
	}
}

// Response helpers.

func respondEmbed(r bot.Responder, description string, color int) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: description,
					Color:       color,
				},
			},
		},
	})
}

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}

func enqueuedMessage(output *usecases.EnqueueOutput) string {
	switch {
	case output.Count > 1:
		return fmt.Sprintf("Added %d tracks to the queue.", output.Count)
	case output.Started:
		return fmt.Sprintf("Playing **%s**.", output.First.Title)
	default:
		return fmt.Sprintf("Added **%s** to the queue (position %d).",
			output.First.Title, output.Position)
	}
}

func respondEnqueued(r bot.Responder, output *usecases.EnqueueOutput) error {
	return respondEmbed(r, enqueuedMessage(output), colorSuccess)
}

func respondChoices(r bot.Responder, candidates []domain.Track) error {
	var sb strings.Builder
	sb.WriteString("Reply with a number to pick a track, or `cancel`:\n")
	for n, track := range candidates {
		fmt.Fprintf(&sb, "%d\\. **%s** - %s (%s)\n",
			n+1, track.Title, track.Author, track.FormattedDuration())
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Search Results",
					Description: sb.String(),
					Color:       colorNeutral,
				},
			},
		},
	})
}

func respondQueueList(r bot.Responder, output *usecases.ListOutput) error {
	embed := &discordgo.MessageEmbed{
		Title: "Queue",
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d/%d | %d pending", output.Page, output.Pages, output.Total),
		},
	}

	var sb strings.Builder
	if output.Current != nil {
		fmt.Fprintf(&sb, "### Now Playing\n**%s** - %s\n",
			output.Current.Title, output.Current.Author)
	}

	if len(output.Entries) == 0 {
		sb.WriteString("The queue is empty.")
	} else {
		sb.WriteString("### Up Next\n")
		for n, track := range output.Entries {
			// Escape the period so Discord doesn't render a list.
			fmt.Fprintf(&sb, "%d\\. **%s** - %s\n",
				output.Offset+n+1, track.Title, track.Author)
		}
	}
	embed.Description = sb.String()

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}
