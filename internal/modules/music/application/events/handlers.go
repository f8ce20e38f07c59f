package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// TrackEndedFunc is invoked for every track-ended lifecycle event. The
// reason is forwarded opaque; no reason triggers a different transition
// than any other.
type TrackEndedFunc func(ctx context.Context, guildID snowflake.ID, reason string)

// NodeEventHandler drains the bus in background goroutines and feeds
// lifecycle events into the playback controller.
type NodeEventHandler struct {
	onTrackEnded TrackEndedFunc
	bus          *Bus

	wg   sync.WaitGroup
	done chan struct{}
}

// NewNodeEventHandler creates a NodeEventHandler.
func NewNodeEventHandler(onTrackEnded TrackEndedFunc, bus *Bus) *NodeEventHandler {
	return &NodeEventHandler{
		onTrackEnded: onTrackEnded,
		bus:          bus,
		done:         make(chan struct{}),
	}
}

// Start begins consuming events in background goroutines.
func (h *NodeEventHandler) Start(ctx context.Context) {
	h.wg.Add(3)

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.TrackEnded():
				if !ok {
					return
				}
				h.onTrackEnded(ctx, event.GuildID, event.Reason)
			}
		}
	}()

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.TrackStarted():
				if !ok {
					return
				}
				slog.Debug("track started", "guild", event.GuildID, "track", event.Title)
			}
		}
	}()

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.NodeReady():
				if !ok {
					return
				}
				slog.Info("audio node ready", "node", event.Node)
			}
		}
	}()

	slog.Debug("node event handler started")
}

// Stop stops the handler and waits for its goroutines to finish.
func (h *NodeEventHandler) Stop() {
	close(h.done)
	h.wg.Wait()
	slog.Debug("node event handler stopped")
}
