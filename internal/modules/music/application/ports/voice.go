package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// VoiceStateProvider exposes the Discord voice state this system needs:
// where a user currently is, and how many humans share a channel.
type VoiceStateProvider interface {
	// UserVoiceChannel returns the voice channel the user is in, or 0.
	UserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error)

	// ListenerCount returns the number of non-bot members in the voice
	// channel. Used for the vote-skip threshold.
	ListenerCount(guildID, channelID snowflake.ID) (int, error)
}

// PermissionProvider answers guild membership and privilege questions.
type PermissionProvider interface {
	// IsElevated reports whether the user holds administrator, manage
	// guild or manage channels in the guild (or owns it).
	IsElevated(guildID, userID snowflake.ID) (bool, error)

	// IsMember reports whether the user is a member of the guild.
	IsMember(guildID, userID snowflake.ID) (bool, error)
}
