package usecases

import (
	"context"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"

	"github.com/altafio/muzebot/internal/modules/music/application/ports"
	"github.com/altafio/muzebot/internal/modules/music/domain"
)

// DefaultPageSize is the number of queue entries shown per list page.
const DefaultPageSize = 10

// ListInput contains the input for the List use case. Page is 1-based.
type ListInput struct {
	GuildID snowflake.ID
	Page    int
}

// ListOutput contains one page of the pending queue.
type ListOutput struct {
	Current *domain.QueuedTrack
	Entries []domain.QueuedTrack
	Page    int
	Pages   int
	Total   int
	Offset  int // 0-based index of the first entry in Entries
}

// RemoveInput contains the input for the Remove use case. Position is
// the 1-based queue position shown by List.
type RemoveInput struct {
	GuildID  snowflake.ID
	UserID   snowflake.ID
	Position int
}

// ClearInput contains the input for the Clear use case.
type ClearInput struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
}

// QueueService serves queue inspection and mutation on top of the
// session store. Removal of someone else's entry and clearing require
// DJ or elevated permissions.
type QueueService struct {
	store domain.SessionStore
	perms ports.PermissionProvider
}

// NewQueueService creates a QueueService.
func NewQueueService(store domain.SessionStore, perms ports.PermissionProvider) *QueueService {
	return &QueueService{store: store, perms: perms}
}

// List returns one page of pending tracks along with the current one.
func (q *QueueService) List(input ListInput) (*ListOutput, error) {
	session := q.store.Get(input.GuildID)
	if session == nil {
		return nil, ErrNotConnected
	}

	entries := session.QueueSnapshot()
	total := len(entries)

	pages := (total + DefaultPageSize - 1) / DefaultPageSize
	if pages == 0 {
		pages = 1
	}
	page := input.Page
	if page < 1 {
		page = 1
	}
	if page > pages {
		return nil, ErrOutOfRange
	}

	offset := (page - 1) * DefaultPageSize
	end := offset + DefaultPageSize
	if end > total {
		end = total
	}

	return &ListOutput{
		Current: session.Current(),
		Entries: entries[offset:end],
		Page:    page,
		Pages:   pages,
		Total:   total,
		Offset:  offset,
	}, nil
}

// Remove deletes one pending entry. Requesters may always remove their
// own entries; removing someone else's requires DJ or elevated
// permissions.
func (q *QueueService) Remove(ctx context.Context, input RemoveInput) (*domain.QueuedTrack, error) {
	session := q.store.Get(input.GuildID)
	if session == nil {
		return nil, ErrNotConnected
	}

	target := session.QueueAt(input.Position - 1)
	if target == nil {
		return nil, ErrOutOfRange
	}

	if target.RequesterID != input.UserID {
		if err := requireDJOrElevated(q.perms, session, input.GuildID, input.UserID); err != nil {
			return nil, err
		}
	}

	removed := session.RemoveTrackAt(input.Position - 1)
	if removed == nil {
		// The queue moved underneath us between lookup and removal.
		return nil, ErrOutOfRange
	}

	slog.Info("queue entry removed",
		"guild", input.GuildID,
		"track", removed.Title,
		"by", input.UserID,
	)
	return removed, nil
}

// Clear drops every pending entry without touching the current track.
// DJ or elevated callers only.
func (q *QueueService) Clear(ctx context.Context, input ClearInput) (int, error) {
	session := q.store.Get(input.GuildID)
	if session == nil {
		return 0, ErrNotConnected
	}
	if err := requireDJOrElevated(q.perms, session, input.GuildID, input.UserID); err != nil {
		return 0, err
	}

	dropped := session.FlushQueue()
	slog.Info("queue cleared", "guild", input.GuildID, "dropped", dropped, "by", input.UserID)
	return dropped, nil
}

// requireDJOrElevated authorizes DJ-or-elevated operations against a
// live session.
func requireDJOrElevated(
	perms ports.PermissionProvider,
	session *domain.GuildSession,
	guildID, userID snowflake.ID,
) error {
	if userID == session.DJ() {
		return nil
	}
	elevated, err := perms.IsElevated(guildID, userID)
	if err != nil {
		return err
	}
	if !elevated {
		return ErrUnauthorized
	}
	return nil
}
