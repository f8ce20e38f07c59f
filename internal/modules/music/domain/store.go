package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// SessionStore is the exclusive owner of all guild sessions. Sessions
// are looked up by guild ID, created lazily and deleted (never reused)
// on teardown. Implementations must support safe concurrent
// lookup/create/delete; the session objects themselves serialize their
// own mutations.
type SessionStore interface {
	// GetOrCreate returns the session for the guild, creating one with
	// the given user as DJ if none exists. Never returns nil. The
	// second result reports whether a session was created.
	GetOrCreate(guildID, creatorID snowflake.ID) (*GuildSession, bool)

	// Get returns the session for the guild, or nil.
	Get(guildID snowflake.ID) *GuildSession

	// Delete removes the session. A subsequent GetOrCreate builds a
	// fresh one.
	Delete(guildID snowflake.ID)
}
