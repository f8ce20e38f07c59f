package domain

import (
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// ProviderKind describes how a track was resolved.
type ProviderKind int

const (
	// ProviderDirect is a track resolved from a directly streamable URL.
	ProviderDirect ProviderKind = iota
	// ProviderSearch is a track resolved through keyword search.
	ProviderSearch
	// ProviderPlaylist is a track resolved as a member of an expanded playlist.
	ProviderPlaylist
	// ProviderLinked is a track cross-resolved from a linked streaming service.
	ProviderLinked
)

// String returns a human-readable provider name.
func (k ProviderKind) String() string {
	switch k {
	case ProviderSearch:
		return "search"
	case ProviderPlaylist:
		return "playlist"
	case ProviderLinked:
		return "linked"
	default:
		return "direct"
	}
}

// Track is an immutable descriptor of a playable track. Encoded is the
// opaque handle the audio node understands; the orchestrator never
// inspects it.
type Track struct {
	Title    string
	Author   string // may be empty
	Duration time.Duration
	Encoded  string
	URI      string
	Provider ProviderKind
	IsStream bool
}

// QueuedTrack binds a Track to the user who requested it and the text
// channel where playback announcements for it are sent. It is owned by
// the guild session's queue from enqueue until it is played or removed.
type QueuedTrack struct {
	Track
	RequesterID    snowflake.ID
	ReplyChannelID snowflake.ID
	EnqueuedAt     time.Time
}

// NewQueuedTrack binds a track to its requester and reply channel.
func NewQueuedTrack(track Track, requesterID, replyChannelID snowflake.ID) QueuedTrack {
	return QueuedTrack{
		Track:          track,
		RequesterID:    requesterID,
		ReplyChannelID: replyChannelID,
		EnqueuedAt:     time.Now().UTC(),
	}
}

// FormattedDuration renders the duration as mm:ss or hh:mm:ss.
func (t *Track) FormattedDuration() string {
	if t.IsStream {
		return "LIVE"
	}

	totalSeconds := int(t.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
