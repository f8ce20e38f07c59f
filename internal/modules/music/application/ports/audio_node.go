package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// AudioNode is the control surface of the external audio-playback node.
// The node performs the actual decoding and streaming; this system only
// instructs it and reacts to its lifecycle events. Players are
// addressed by guild ID. Node failures surface as errors and must never
// leave guild session state half-applied; callers commit their
// in-memory mutation only after the node call succeeds.
type AudioNode interface {
	// Connect establishes the voice connection for the guild and
	// allocates a player. Blocks until the voice handshake completes
	// or ctx is done.
	Connect(ctx context.Context, guildID, channelID snowflake.ID) error

	// Play starts streaming the encoded track on the guild's player.
	Play(ctx context.Context, guildID snowflake.ID, encoded string) error

	// Stop halts the current track. The node reports the end through a
	// track-ended lifecycle event like any other termination.
	Stop(ctx context.Context, guildID snowflake.ID) error

	// SetVolume adjusts the player volume, 1-100.
	SetVolume(ctx context.Context, guildID snowflake.ID, volume int) error

	// Disconnect destroys the player and releases the voice connection.
	Disconnect(ctx context.Context, guildID snowflake.ID) error
}
