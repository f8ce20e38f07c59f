package events

import (
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// DefaultBufferSize is the default buffer size for event channels.
const DefaultBufferSize = 64

// TrackStartedEvent is published when the audio node starts streaming
// a track. Informational; playback state is committed at play time.
type TrackStartedEvent struct {
	GuildID snowflake.ID
	Title   string
}

// TrackEndedEvent is published when the audio node reports the end of a
// track, for any reason including a manual stop. Reason is the node's
// opaque wording, forwarded as-is.
type TrackEndedEvent struct {
	GuildID snowflake.ID
	Reason  string
}

// NodeReadyEvent is published when a connection to an audio node is
// established.
type NodeReadyEvent struct {
	Node string
}

// Bus carries audio node lifecycle events on one typed channel per
// event kind, so consumers dispatch on channel, not on runtime
// signature inspection.
type Bus struct {
	trackStarted chan TrackStartedEvent
	trackEnded   chan TrackEndedEvent
	nodeReady    chan NodeReadyEvent

	closed bool
	mu     sync.RWMutex
}

// NewBus creates a Bus with the given channel buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Bus{
		trackStarted: make(chan TrackStartedEvent, bufferSize),
		trackEnded:   make(chan TrackEndedEvent, bufferSize),
		nodeReady:    make(chan NodeReadyEvent, bufferSize),
	}
}

// PublishTrackStarted publishes a TrackStartedEvent. Non-blocking: a
// full buffer drops the event with a warning.
func (b *Bus) PublishTrackStarted(event TrackStartedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("publish on closed event bus", "type", "TrackStarted")
		return
	}

	select {
	case b.trackStarted <- event:
	default:
		slog.Warn("event buffer full, dropping event", "type", "TrackStarted", "guild", event.GuildID)
	}
}

// PublishTrackEnded publishes a TrackEndedEvent. Non-blocking: a full
// buffer drops the event with a warning.
func (b *Bus) PublishTrackEnded(event TrackEndedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("publish on closed event bus", "type", "TrackEnded")
		return
	}

	select {
	case b.trackEnded <- event:
	default:
		slog.Warn("event buffer full, dropping event", "type", "TrackEnded", "guild", event.GuildID)
	}
}

// PublishNodeReady publishes a NodeReadyEvent. Non-blocking: a full
// buffer drops the event with a warning.
func (b *Bus) PublishNodeReady(event NodeReadyEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("publish on closed event bus", "type", "NodeReady")
		return
	}

	select {
	case b.nodeReady <- event:
	default:
		slog.Warn("event buffer full, dropping event", "type", "NodeReady")
	}
}

// TrackStarted returns the channel for TrackStartedEvent.
func (b *Bus) TrackStarted() <-chan TrackStartedEvent {
	return b.trackStarted
}

// TrackEnded returns the channel for TrackEndedEvent.
func (b *Bus) TrackEnded() <-chan TrackEndedEvent {
	return b.trackEnded
}

// NodeReady returns the channel for NodeReadyEvent.
func (b *Bus) NodeReady() <-chan NodeReadyEvent {
	return b.nodeReady
}

// Close closes all event channels. Publishing after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.trackStarted)
	close(b.trackEnded)
	close(b.nodeReady)
}
