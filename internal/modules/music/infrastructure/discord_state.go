package infrastructure

import (
	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/altafio/muzebot/internal/modules/music/application/ports"
)

// elevatedPermissions are the guild permissions that grant playback
// control regardless of the DJ role.
const elevatedPermissions = discordgo.PermissionAdministrator |
	discordgo.PermissionManageGuild |
	discordgo.PermissionManageChannels

// DiscordStateProvider answers voice state and permission questions
// from discordgo's state cache.
type DiscordStateProvider struct {
	session *discordgo.Session
}

// NewDiscordStateProvider creates a DiscordStateProvider.
func NewDiscordStateProvider(session *discordgo.Session) *DiscordStateProvider {
	return &DiscordStateProvider{
		session: session,
	}
}

// UserVoiceChannel returns the voice channel ID the user is currently
// in, or 0 when the user is not in voice.
func (p *DiscordStateProvider) UserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error) {
	guild, err := p.session.State.Guild(guildID.String())
	if err != nil {
		return 0, err
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID.String() && vs.ChannelID != "" {
			channelID, err := snowflake.Parse(vs.ChannelID)
			if err != nil {
				return 0, err
			}
			return channelID, nil
		}
	}

	return 0, nil
}

// ListenerCount returns the number of non-bot members in the voice
// channel.
func (p *DiscordStateProvider) ListenerCount(guildID, channelID snowflake.ID) (int, error) {
	guild, err := p.session.State.Guild(guildID.String())
	if err != nil {
		return 0, err
	}

	count := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID.String() {
			continue
		}
		member, err := p.session.State.Member(guildID.String(), vs.UserID)
		if err == nil && member.User != nil && member.User.Bot {
			continue
		}
		count++
	}

	return count, nil
}

// IsElevated reports whether the user owns the guild or holds
// administrator, manage guild or manage channels.
func (p *DiscordStateProvider) IsElevated(guildID, userID snowflake.ID) (bool, error) {
	guild, err := p.session.State.Guild(guildID.String())
	if err != nil {
		return false, err
	}
	if guild.OwnerID == userID.String() {
		return true, nil
	}

	member, err := p.session.State.Member(guildID.String(), userID.String())
	if err != nil {
		member, err = p.session.GuildMember(guildID.String(), userID.String())
		if err != nil {
			return false, err
		}
	}

	roles := make(map[string]*discordgo.Role, len(guild.Roles))
	for _, role := range guild.Roles {
		roles[role.ID] = role
	}

	// Guild-level permissions: @everyone plus every member role.
	var perms int64
	if everyone, ok := roles[guildID.String()]; ok {
		perms |= everyone.Permissions
	}
	for _, roleID := range member.Roles {
		if role, ok := roles[roleID]; ok {
			perms |= role.Permissions
		}
	}

	return perms&elevatedPermissions != 0, nil
}

// IsMember reports whether the user is a member of the guild, checking
// the state cache first and falling back to the API.
func (p *DiscordStateProvider) IsMember(guildID, userID snowflake.ID) (bool, error) {
	if _, err := p.session.State.Member(guildID.String(), userID.String()); err == nil {
		return true, nil
	}

	member, err := p.session.GuildMember(guildID.String(), userID.String())
	if err != nil {
		if restErr, ok := err.(*discordgo.RESTError); ok &&
			restErr.Message != nil &&
			restErr.Message.Code == discordgo.ErrCodeUnknownMember {
			return false, nil
		}
		return false, err
	}
	return member != nil, nil
}

// Ensure DiscordStateProvider implements the port interfaces.
var (
	_ ports.VoiceStateProvider = (*DiscordStateProvider)(nil)
	_ ports.PermissionProvider = (*DiscordStateProvider)(nil)
)
