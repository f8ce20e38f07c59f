package ports

import (
	"github.com/disgoorg/snowflake/v2"

	"github.com/altafio/muzebot/internal/modules/music/domain"
)

// Notifier posts playback announcements to the reply channel a track
// was requested from. Needed for transitions that happen outside any
// interaction, like the queue auto-advancing on track end. Announcement
// failures are logged, never fatal.
type Notifier interface {
	// AnnounceNowPlaying posts the "Now Playing" message for a track.
	AnnounceNowPlaying(channelID snowflake.ID, track *domain.QueuedTrack) error
}
