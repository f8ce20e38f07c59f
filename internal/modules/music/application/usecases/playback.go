package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/altafio/muzebot/internal/modules/music/application/ports"
	"github.com/altafio/muzebot/internal/modules/music/domain"
)

// DefaultIdleTimeout bounds how long an exhausted session waits for a
// new enqueue before the voice connection is released.
const DefaultIdleTimeout = 300 * time.Second

// teardownTimeout bounds node calls made from background teardown paths.
const teardownTimeout = 10 * time.Second

// JoinInput contains the input for the Join use case.
type JoinInput struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
}

// JoinOutput contains the result of the Join use case.
type JoinOutput struct {
	VoiceChannelID snowflake.ID
	Created        bool
}

// EnqueueInput contains the input for the Enqueue use case. Tracks may
// hold a single resolved track or a full playlist expansion.
type EnqueueInput struct {
	GuildID        snowflake.ID
	UserID         snowflake.ID
	ReplyChannelID snowflake.ID
	Tracks         []domain.Track
}

// EnqueueOutput contains the result of the Enqueue use case.
type EnqueueOutput struct {
	Count    int  // how many tracks were accepted
	Started  bool // true if the first track started playing immediately
	Position int  // 1-based pending position of the first track; 0 when it started
	First    domain.QueuedTrack
}

// StopInput contains the input for the Stop and Leave use cases.
type StopInput struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
}

// SkipInput contains the input for the Skip use case.
type SkipInput struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
}

// SkipOutput contains the result of the Skip use case. When Skipped is
// false the caller's vote was counted and Votes/Required report the
// running tally.
type SkipOutput struct {
	Skipped  bool
	Votes    int
	Required int
	Title    string
}

// SetVolumeInput contains the input for the SetVolume use case.
type SetVolumeInput struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
	Level   int
}

// SetRepeatInput contains the input for the SetRepeat use case.
type SetRepeatInput struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
	Mode    string // "off", "single", "all"
}

// NowPlayingOutput describes the session's current playback.
type NowPlayingOutput struct {
	Track   domain.QueuedTrack
	Volume  int
	Repeat  domain.RepeatMode
	DJ      snowflake.ID
	Pending int
}

// PlaybackService is the state machine driving guild sessions: it
// enqueues, requests playback from the audio node, reacts to node
// lifecycle events, applies skip/stop/volume policy and tears sessions
// down when nobody is listening.
type PlaybackService struct {
	store    domain.SessionStore
	node     ports.AudioNode
	voice    ports.VoiceStateProvider
	perms    ports.PermissionProvider
	notifier ports.Notifier

	idleTimeout time.Duration
}

// NewPlaybackService creates a PlaybackService.
func NewPlaybackService(
	store domain.SessionStore,
	node ports.AudioNode,
	voice ports.VoiceStateProvider,
	perms ports.PermissionProvider,
	notifier ports.Notifier,
	idleTimeout time.Duration,
) *PlaybackService {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &PlaybackService{
		store:       store,
		node:        node,
		voice:       voice,
		perms:       perms,
		notifier:    notifier,
		idleTimeout: idleTimeout,
	}
}

// Join creates the guild session if needed and connects the voice
// channel the requester is in. The session creator becomes DJ. Fails
// with ErrNoVoiceChannel when the requester is not in voice.
func (p *PlaybackService) Join(ctx context.Context, input JoinInput) (*JoinOutput, error) {
	channelID, err := p.voice.UserVoiceChannel(input.GuildID, input.UserID)
	if err != nil {
		return nil, err
	}
	if channelID == 0 {
		return nil, ErrNoVoiceChannel
	}

	session, created := p.store.GetOrCreate(input.GuildID, input.UserID)
	if !created {
		return &JoinOutput{VoiceChannelID: session.VoiceChannelID()}, nil
	}

	if err := p.node.Connect(ctx, input.GuildID, channelID); err != nil {
		// The session exists iff a connection is active or pending;
		// a failed connect leaves neither.
		p.store.Delete(input.GuildID)
		slog.Error("voice connect failed", "guild", input.GuildID, "error", err)
		return nil, ErrNodeUnavailable
	}

	session.SetVoiceChannel(channelID)
	session.SetPhase(domain.PhaseIdle)
	slog.Info("voice session established",
		"guild", input.GuildID,
		"channel", channelID,
		"dj", input.UserID,
	)

	return &JoinOutput{VoiceChannelID: channelID, Created: true}, nil
}

// Enqueue appends resolved tracks to the queue, connecting first if no
// session exists. An enqueue onto an empty current slot immediately
// requests playback of the queue head.
func (p *PlaybackService) Enqueue(ctx context.Context, input EnqueueInput) (*EnqueueOutput, error) {
	if len(input.Tracks) == 0 {
		return nil, ErrNoResults
	}

	if _, err := p.Join(ctx, JoinInput{GuildID: input.GuildID, UserID: input.UserID}); err != nil {
		return nil, err
	}

	session := p.store.Get(input.GuildID)
	if session == nil {
		return nil, ErrNotConnected
	}

	first := domain.NewQueuedTrack(input.Tracks[0], input.UserID, input.ReplyChannelID)
	position := session.Enqueue(first)
	for _, track := range input.Tracks[1:] {
		session.Enqueue(domain.NewQueuedTrack(track, input.UserID, input.ReplyChannelID))
	}

	output := &EnqueueOutput{
		Count:    len(input.Tracks),
		Position: position,
		First:    first,
	}

	if claimed := session.ClaimNext(); claimed != nil {
		if err := p.startTrack(ctx, session, claimed); err != nil {
			return nil, err
		}
		output.Started = true
		output.Position = 0
	}

	return output, nil
}

// Skip applies the skip policy: the DJ, elevated callers and the
// requester of the current track skip immediately; everyone else casts
// a vote, and the track is force-ended once the distinct vote count
// reaches ceil(0.4 * listeners).
func (p *PlaybackService) Skip(ctx context.Context, input SkipInput) (*SkipOutput, error) {
	session := p.store.Get(input.GuildID)
	if session == nil {
		return nil, ErrNotConnected
	}
	current := session.Current()
	if current == nil {
		return nil, ErrNotPlaying
	}

	privileged := input.UserID == session.DJ() || input.UserID == current.RequesterID
	if !privileged {
		elevated, err := p.perms.IsElevated(input.GuildID, input.UserID)
		if err != nil {
			return nil, err
		}
		privileged = elevated
	}

	if privileged {
		if err := p.forceEnd(ctx, session); err != nil {
			return nil, err
		}
		return &SkipOutput{Skipped: true, Title: current.Title}, nil
	}

	// Read the listener count before recording the vote: a failed read
	// must leave the vote set untouched.
	listeners, err := p.voice.ListenerCount(input.GuildID, session.VoiceChannelID())
	if err != nil {
		slog.Error("listener count failed", "guild", input.GuildID, "error", err)
		return nil, ErrNotConnected
	}
	required := voteThreshold(listeners)
	votes := session.AddSkipVote(input.UserID)

	if votes >= required {
		if err := p.forceEnd(ctx, session); err != nil {
			return nil, err
		}
		return &SkipOutput{Skipped: true, Votes: votes, Required: required, Title: current.Title}, nil
	}

	return &SkipOutput{Votes: votes, Required: required, Title: current.Title}, nil
}

// SetVolume adjusts the player volume. DJ or elevated callers only;
// the session value is committed only after the node accepted the
// change.
func (p *PlaybackService) SetVolume(ctx context.Context, input SetVolumeInput) error {
	if input.Level < 1 || input.Level > 100 {
		return ErrVolumeOutOfRange
	}

	session := p.store.Get(input.GuildID)
	if session == nil {
		return ErrNotConnected
	}
	if err := requireDJOrElevated(p.perms, session, input.GuildID, input.UserID); err != nil {
		return err
	}

	if err := p.node.SetVolume(ctx, input.GuildID, input.Level); err != nil {
		slog.Error("volume request failed", "guild", input.GuildID, "error", err)
		return ErrNodeUnavailable
	}
	session.SetVolume(input.Level)

	return nil
}

// SetRepeat sets the repeat mode. DJ or elevated callers only.
func (p *PlaybackService) SetRepeat(input SetRepeatInput) (domain.RepeatMode, error) {
	session := p.store.Get(input.GuildID)
	if session == nil {
		return domain.RepeatOff, ErrNotConnected
	}
	if err := requireDJOrElevated(p.perms, session, input.GuildID, input.UserID); err != nil {
		return domain.RepeatOff, err
	}

	mode := domain.ParseRepeatMode(input.Mode)
	session.SetRepeat(mode)
	return mode, nil
}

// NowPlaying reports the currently streaming track.
func (p *PlaybackService) NowPlaying(guildID snowflake.ID) (*NowPlayingOutput, error) {
	session := p.store.Get(guildID)
	if session == nil {
		return nil, ErrNotConnected
	}
	current := session.Current()
	if current == nil {
		return nil, ErrNotPlaying
	}

	return &NowPlayingOutput{
		Track:   *current,
		Volume:  session.Volume(),
		Repeat:  session.Repeat(),
		DJ:      session.DJ(),
		Pending: session.QueueLen(),
	}, nil
}

// Stop tears the session down on behalf of an authorized caller: the
// queue is dropped, the voice connection released and the session
// deleted. Also serves the leave operation.
func (p *PlaybackService) Stop(ctx context.Context, input StopInput) error {
	session := p.store.Get(input.GuildID)
	if session == nil {
		return ErrNotConnected
	}
	if err := requireDJOrElevated(p.perms, session, input.GuildID, input.UserID); err != nil {
		return err
	}

	p.teardown(ctx, session, "stop requested")
	return nil
}

// HandleTrackEnd consumes a track-ended lifecycle event: pull the next
// queued entry and play it, or open the bounded awaiting-next window.
// The reason is opaque and never changes the transition taken.
func (p *PlaybackService) HandleTrackEnd(ctx context.Context, guildID snowflake.ID, reason string) {
	session := p.store.Get(guildID)
	if session == nil {
		slog.Debug("track ended for absent session", "guild", guildID)
		return
	}

	slog.Debug("track ended", "guild", guildID, "reason", reason)

	next := session.NextAfterEnd()
	if next != nil {
		if err := p.startTrack(ctx, session, next); err != nil {
			// The head went back to the queue; fall into the wait
			// window instead of hammering the node.
			p.openIdleWindow(session)
		}
		return
	}

	p.openIdleWindow(session)
}

// HandleNodeDisconnect consumes a fatal node disconnect: unconditional
// teardown, indistinguishable from a normal stop apart from the log.
func (p *PlaybackService) HandleNodeDisconnect(guildID snowflake.ID) {
	session := p.store.Get(guildID)
	if session == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	p.teardown(ctx, session, "voice connection lost")
}

// startTrack issues the play request for a claimed track and announces
// it. On node failure the claim is rolled back so the queue is exactly
// as it was.
func (p *PlaybackService) startTrack(
	ctx context.Context,
	session *domain.GuildSession,
	track *domain.QueuedTrack,
) error {
	guildID := session.GuildID()

	if err := p.node.Play(ctx, guildID, track.Encoded); err != nil {
		session.AbortPlayback()
		slog.Error("play request failed", "guild", guildID, "track", track.Title, "error", err)
		return ErrNodeUnavailable
	}

	if volume := session.Volume(); volume != domain.DefaultVolume {
		if err := p.node.SetVolume(ctx, guildID, volume); err != nil {
			slog.Warn("failed to reapply volume", "guild", guildID, "error", err)
		}
	}

	slog.Info("playback started", "guild", guildID, "track", track.Title, "requester", track.RequesterID)

	if err := p.notifier.AnnounceNowPlaying(track.ReplyChannelID, track); err != nil {
		slog.Warn("failed to announce track", "guild", guildID, "error", err)
	}

	return nil
}

// forceEnd stops the current track on the node. The subsequent
// track-ended event drives the normal end-of-track transition, with
// RepeatSingle bypassed for this one advance.
func (p *PlaybackService) forceEnd(ctx context.Context, session *domain.GuildSession) error {
	session.ForceAdvance()
	if err := p.node.Stop(ctx, session.GuildID()); err != nil {
		session.ClearForceAdvance()
		slog.Error("stop request failed", "guild", session.GuildID(), "error", err)
		return ErrNodeUnavailable
	}
	return nil
}

// openIdleWindow opens the awaiting-next window and arms its timer.
func (p *PlaybackService) openIdleWindow(session *domain.GuildSession) {
	cancel := session.BeginIdleWait()
	if cancel == nil {
		// A concurrent enqueue claimed a track first, or teardown began.
		return
	}

	slog.Debug("queue exhausted, awaiting next enqueue",
		"guild", session.GuildID(),
		"window", p.idleTimeout,
	)
	go p.awaitNext(session.GuildID(), cancel)
}

// awaitNext waits out the awaiting-next window. Expiry tears the
// session down; cancellation means a new enqueue or an explicit stop
// already decided the outcome.
func (p *PlaybackService) awaitNext(guildID snowflake.ID, cancel <-chan struct{}) {
	timer := time.NewTimer(p.idleTimeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		session := p.store.Get(guildID)
		if session == nil {
			return
		}
		// Both select cases can be ready at once; only a window that
		// is still live may tear the session down. An enqueue that
		// cancelled the wait as the timer fired wins.
		if !session.BeginTeardownIfAwaiting(cancel) {
			slog.Debug("awaiting-next window cancelled", "guild", guildID)
			return
		}
		slog.Info("wait window elapsed, releasing voice connection", "guild", guildID)
		ctx, cancelCtx := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancelCtx()
		p.finishTeardown(ctx, session, "queue exhausted")
	case <-cancel:
		slog.Debug("awaiting-next window cancelled", "guild", guildID)
	}
}

// teardown releases the voice resource and deletes the session.
// Concurrent teardown paths collapse into the first one.
func (p *PlaybackService) teardown(ctx context.Context, session *domain.GuildSession, cause string) {
	if !session.BeginTeardown() {
		return
	}
	p.finishTeardown(ctx, session, cause)
}

// finishTeardown runs the teardown steps after the session committed to
// disconnecting.
func (p *PlaybackService) finishTeardown(
	ctx context.Context,
	session *domain.GuildSession,
	cause string,
) {
	guildID := session.GuildID()

	session.FlushQueue()
	session.SetCurrent(nil)

	if err := p.node.Disconnect(ctx, guildID); err != nil {
		slog.Warn("disconnect request failed", "guild", guildID, "error", err)
	}
	p.store.Delete(guildID)

	slog.Info("session torn down", "guild", guildID, "cause", cause)
}

// voteThreshold is ceil(0.4 * listeners), at least 1.
func voteThreshold(listeners int) int {
	required := (2*listeners + 4) / 5
	if required < 1 {
		required = 1
	}
	return required
}
