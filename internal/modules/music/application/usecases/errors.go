package usecases

import "errors"

// Error kinds surfaced to the command layer. All of them are recovered
// at the playback controller boundary and turned into a result value;
// none terminates a session.
var (
	// ErrNoVoiceChannel is returned when the requester is not in a
	// voice channel and a connection is required.
	ErrNoVoiceChannel = errors.New("you must be in a voice channel")

	// ErrUnsupportedSource is returned when a query matches a
	// recognized but unplayable pattern.
	ErrUnsupportedSource = errors.New("this source cannot be played")

	// ErrNoResults is returned when resolution produced zero candidates.
	ErrNoResults = errors.New("no results found")

	// ErrSelectionTimeout is returned when the disambiguation window
	// elapsed without a reply.
	ErrSelectionTimeout = errors.New("no track selected in time")

	// ErrSelectionCancelled is returned when the requester cancelled
	// the disambiguation, or the wait was cancelled by teardown.
	ErrSelectionCancelled = errors.New("track selection cancelled")

	// ErrOutOfRange is returned for an invalid queue position.
	ErrOutOfRange = errors.New("queue position out of range")

	// ErrVolumeOutOfRange is returned when the requested volume is not
	// within 1-100.
	ErrVolumeOutOfRange = errors.New("volume must be between 1 and 100")

	// ErrUnauthorized is returned when the caller lacks DJ, privilege
	// or ownership for a privileged operation.
	ErrUnauthorized = errors.New("you are not allowed to do that")

	// ErrNodeUnavailable is returned when a call to the audio node
	// failed. The attempted session mutation is not applied.
	ErrNodeUnavailable = errors.New("audio node unavailable")

	// ErrNotConnected is returned when an operation requires an active
	// session and none exists.
	ErrNotConnected = errors.New("not connected to a voice channel")

	// ErrNotPlaying is returned when no track is currently streaming.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrQueueEmpty is returned when a queue operation finds nothing
	// to act on.
	ErrQueueEmpty = errors.New("the queue is empty")

	// ErrNotAMember is returned when a DJ delegation target is not a
	// member of the guild.
	ErrNotAMember = errors.New("that user is not a member of this guild")
)
