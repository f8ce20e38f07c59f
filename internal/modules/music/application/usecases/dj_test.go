package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/disgoorg/snowflake/v2"
)

func TestDJService_Delegate(t *testing.T) {
	guildID := snowflake.ID(1)
	djID := snowflake.ID(2)
	targetID := snowflake.ID(5)
	otherID := snowflake.ID(9)
	adminID := snowflake.ID(8)

	tests := []struct {
		name     string
		userID   snowflake.ID
		targetID snowflake.ID
		wantErr  error
	}{
		{name: "dj delegates", userID: djID, targetID: targetID},
		{name: "elevated caller delegates", userID: adminID, targetID: targetID},
		{name: "plain member cannot delegate", userID: otherID, targetID: targetID, wantErr: ErrUnauthorized},
		{name: "target outside the guild", userID: djID, targetID: snowflake.ID(404), wantErr: ErrNotAMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			store.createSession(guildID, djID, snowflake.ID(4))
			perms := &mockPermissionProvider{
				elevated: map[snowflake.ID]bool{adminID: true},
				members:  map[snowflake.ID]bool{targetID: true},
			}
			service := NewDJService(store, perms)

			err := service.Delegate(context.Background(), DelegateInput{
				GuildID:  guildID,
				UserID:   tt.userID,
				TargetID: tt.targetID,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				if store.Get(guildID).DJ() != djID {
					t.Error("expected dj unchanged")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if store.Get(guildID).DJ() != tt.targetID {
				t.Errorf("expected dj %v, got %v", tt.targetID, store.Get(guildID).DJ())
			}
		})
	}
}

func TestDJService_Delegate_NotConnected(t *testing.T) {
	service := NewDJService(newMockStore(), &mockPermissionProvider{})
	err := service.Delegate(context.Background(), DelegateInput{
		GuildID:  snowflake.ID(1),
		UserID:   snowflake.ID(2),
		TargetID: snowflake.ID(3),
	})
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
