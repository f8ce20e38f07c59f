package domain

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// DefaultVolume is the playback volume a fresh session starts with.
const DefaultVolume = 100

// Phase is the playback lifecycle state of a guild session. A guild
// with no session in the store is implicitly absent.
type Phase int

const (
	// PhaseConnecting means the voice connection is being established.
	PhaseConnecting Phase = iota
	// PhaseIdle means the session is connected with nothing playing.
	PhaseIdle
	// PhasePlaying means a track is actively streaming.
	PhasePlaying
	// PhaseAwaitingNext means the queue ran out and the session is
	// waiting a bounded window for a new enqueue before tearing down.
	PhaseAwaitingNext
	// PhaseDisconnecting means teardown has begun; lifecycle events
	// arriving after this point are ignored.
	PhaseDisconnecting
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseIdle:
		return "idle"
	case PhasePlaying:
		return "playing"
	case PhaseAwaitingNext:
		return "awaiting_next"
	case PhaseDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// GuildSession is the mutable per-guild playback state: the queue, the
// track currently streaming, the skip-vote set, the DJ and the repeat
// mode. A session exists iff a voice connection for the guild is active
// or pending.
//
// Every exported mutator takes the session mutex for its full duration,
// so each check-and-write is a single atomic step. Concurrent command
// and node-event flows can interleave between calls but never observe a
// torn update.
type GuildSession struct {
	mu sync.Mutex

	guildID        snowflake.ID
	voiceChannelID snowflake.ID
	phase          Phase
	queue          Queue
	current        *QueuedTrack
	skipVotes      map[snowflake.ID]struct{}
	dj             snowflake.ID
	repeat         RepeatMode
	volume         int

	// advanceOnce forces the next end-of-track transition to advance
	// even under RepeatSingle. Set by a forced skip before the node is
	// told to stop.
	advanceOnce bool

	// idleCancel is non-nil while an awaiting-next window is open.
	idleCancel chan struct{}
}

// NewGuildSession creates a session for the guild. The creator becomes
// the DJ.
func NewGuildSession(guildID, creatorID snowflake.ID) *GuildSession {
	return &GuildSession{
		guildID:   guildID,
		phase:     PhaseConnecting,
		skipVotes: make(map[snowflake.ID]struct{}),
		dj:        creatorID,
		volume:    DefaultVolume,
	}
}

// GuildID returns the guild this session belongs to. Immutable after creation.
func (s *GuildSession) GuildID() snowflake.ID {
	return s.guildID
}

// Phase returns the current lifecycle phase.
func (s *GuildSession) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// SetPhase sets the lifecycle phase.
func (s *GuildSession) SetPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
}

// VoiceChannelID returns the connected voice channel, or 0.
func (s *GuildSession) VoiceChannelID() snowflake.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voiceChannelID
}

// SetVoiceChannel records the connected voice channel.
func (s *GuildSession) SetVoiceChannel(id snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceChannelID = id
}

// DJ returns the user currently authorized as primary controller.
func (s *GuildSession) DJ() snowflake.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dj
}

// SetDJ reassigns playback control to the given user.
func (s *GuildSession) SetDJ(userID snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dj = userID
}

// Repeat returns the repeat mode.
func (s *GuildSession) Repeat() RepeatMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repeat
}

// SetRepeat sets the repeat mode.
func (s *GuildSession) SetRepeat(m RepeatMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repeat = m
}

// Volume returns the playback volume in [1,100].
func (s *GuildSession) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetVolume records the playback volume. Range validation happens at
// the use-case boundary.
func (s *GuildSession) SetVolume(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = n
}

// Current returns a copy of the track currently streaming, or nil.
func (s *GuildSession) Current() *QueuedTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	track := *s.current
	return &track
}

// SetCurrent replaces the current slot. Skip votes are cleared whenever
// the current track changes.
func (s *GuildSession) SetCurrent(track *QueuedTrack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = track
	s.resetVotesLocked()
}

// Enqueue appends a track and returns its 1-based position among the
// pending tracks.
func (s *GuildSession) Enqueue(track QueuedTrack) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.PushBack(track)
	return s.queue.Len()
}

// ClaimNext pops the queue head into the current slot if nothing is
// streaming. Returns nil when a track is already current or the queue
// is empty. Claiming cancels a pending awaiting-next window and clears
// the skip votes, all in one atomic step, so two concurrent enqueues
// can never both start playback.
func (s *GuildSession) ClaimNext() *QueuedTrack {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil || s.phase == PhaseDisconnecting {
		return nil
	}
	next := s.queue.PopFront()
	if next == nil {
		return nil
	}

	s.current = next
	s.phase = PhasePlaying
	s.resetVotesLocked()
	s.cancelIdleWaitLocked()

	track := *next
	return &track
}

// AbortPlayback rolls back a claim whose play request failed: the
// current track returns to the head of the queue and the session goes
// back to idle. Queue order is preserved.
func (s *GuildSession) AbortPlayback() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.queue.PushFront(*s.current)
	s.current = nil
	if s.phase == PhasePlaying {
		s.phase = PhaseIdle
	}
}

// ForceAdvance marks the next end-of-track transition as a forced skip,
// so RepeatSingle does not replay the skipped track.
func (s *GuildSession) ForceAdvance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceOnce = true
}

// ClearForceAdvance rolls back a ForceAdvance whose stop request never
// reached the node.
func (s *GuildSession) ClearForceAdvance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceOnce = false
}

// NextAfterEnd applies the repeat policy to the just-ended track and
// advances the current slot. Skip votes are always cleared. Returns the
// track to play next, or nil when the queue is exhausted (the caller
// then opens the awaiting-next window). Returns nil without mutating
// anything once teardown has begun.
func (s *GuildSession) NextAfterEnd() *QueuedTrack {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseDisconnecting {
		return nil
	}

	finished := s.current
	s.current = nil
	forced := s.advanceOnce
	s.advanceOnce = false
	s.resetVotesLocked()

	if finished != nil {
		switch {
		case s.repeat == RepeatSingle && !forced:
			s.current = finished
			s.phase = PhasePlaying
			track := *finished
			return &track
		case s.repeat == RepeatAll:
			// A forced skip under RepeatAll still cycles the track
			// to the tail.
			s.queue.PushBack(*finished)
		}
	}

	next := s.queue.PopFront()
	if next == nil {
		s.phase = PhaseIdle
		return nil
	}

	s.current = next
	s.phase = PhasePlaying
	track := *next
	return &track
}

// AddSkipVote records a skip vote and returns the distinct vote count.
// Repeat votes from the same user do not increase the count.
func (s *GuildSession) AddSkipVote(userID snowflake.ID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipVotes[userID] = struct{}{}
	return len(s.skipVotes)
}

// VoteCount returns the number of distinct skip votes.
func (s *GuildSession) VoteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.skipVotes)
}

// ResetVotes clears the skip-vote set.
func (s *GuildSession) ResetVotes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetVotesLocked()
}

func (s *GuildSession) resetVotesLocked() {
	s.skipVotes = make(map[snowflake.ID]struct{})
}

// QueueLen returns the number of pending tracks.
func (s *GuildSession) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// QueueAt returns a copy of the pending track at the 0-based index, or
// nil if out of bounds.
func (s *GuildSession) QueueAt(index int) *QueuedTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.At(index)
}

// RemoveTrackAt removes and returns the pending track at the 0-based
// index. The current slot and the order of the remaining tracks are
// untouched.
func (s *GuildSession) RemoveTrackAt(index int) *QueuedTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.RemoveAt(index)
}

// QueueSnapshot returns a copy of the pending tracks in play order.
func (s *GuildSession) QueueSnapshot() []QueuedTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.List()
}

// FlushQueue empties the queue, leaving the current slot untouched.
// Returns the number of removed tracks.
func (s *GuildSession) FlushQueue() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Clear()
}

// BeginIdleWait opens the awaiting-next window and returns a channel
// that is closed when the wait is cancelled (by a new enqueue or by
// teardown). Returns nil if a track was claimed in the meantime or
// teardown already started.
func (s *GuildSession) BeginIdleWait() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil || s.phase == PhaseDisconnecting {
		return nil
	}
	s.phase = PhaseAwaitingNext
	s.idleCancel = make(chan struct{})
	return s.idleCancel
}

// CancelIdleWait closes a pending awaiting-next window, if any.
func (s *GuildSession) CancelIdleWait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelIdleWaitLocked()
}

func (s *GuildSession) cancelIdleWaitLocked() {
	if s.idleCancel != nil {
		close(s.idleCancel)
		s.idleCancel = nil
	}
}

// BeginTeardownIfAwaiting is the wait-expiry variant of BeginTeardown:
// it transitions into disconnecting only while the given handle is
// still the session's live awaiting-next window. A wait that was
// cancelled by an enqueue (even in the same instant the timer fired)
// returns false and leaves the resumed playback untouched.
func (s *GuildSession) BeginTeardownIfAwaiting(cancel <-chan struct{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseAwaitingNext || s.idleCancel == nil {
		return false
	}
	if (<-chan struct{})(s.idleCancel) != cancel {
		return false
	}
	s.phase = PhaseDisconnecting
	s.cancelIdleWaitLocked()
	return true
}

// BeginTeardown transitions the session into disconnecting exactly
// once, cancelling any pending awaiting-next window. Returns false if
// teardown was already in progress, so concurrent stop paths (explicit
// stop, wait expiry, fatal node disconnect) collapse into one.
func (s *GuildSession) BeginTeardown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseDisconnecting {
		return false
	}
	s.phase = PhaseDisconnecting
	s.cancelIdleWaitLocked()
	return true
}
