package usecases

import (
	"context"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"

	"github.com/altafio/muzebot/internal/modules/music/application/ports"
	"github.com/altafio/muzebot/internal/modules/music/domain"
)

// DelegateInput contains the input for the Delegate use case.
type DelegateInput struct {
	GuildID  snowflake.ID
	UserID   snowflake.ID
	TargetID snowflake.ID
}

// DJService handles DJ role delegation. The DJ role is a single user
// per session; only the current DJ or an elevated caller may hand it
// over, and only to a member of the guild.
type DJService struct {
	store domain.SessionStore
	perms ports.PermissionProvider
}

// NewDJService creates a DJService.
func NewDJService(store domain.SessionStore, perms ports.PermissionProvider) *DJService {
	return &DJService{store: store, perms: perms}
}

// Delegate transfers the DJ role to the target user.
func (d *DJService) Delegate(ctx context.Context, input DelegateInput) error {
	session := d.store.Get(input.GuildID)
	if session == nil {
		return ErrNotConnected
	}
	if err := requireDJOrElevated(d.perms, session, input.GuildID, input.UserID); err != nil {
		return err
	}

	member, err := d.perms.IsMember(input.GuildID, input.TargetID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotAMember
	}

	session.SetDJ(input.TargetID)
	slog.Info("dj role delegated",
		"guild", input.GuildID,
		"from", input.UserID,
		"to", input.TargetID,
	)
	return nil
}
