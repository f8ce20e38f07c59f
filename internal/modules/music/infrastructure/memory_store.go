package infrastructure

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/altafio/muzebot/internal/modules/music/domain"
)

// MemoryStore is an in-memory implementation of SessionStore. Sessions
// are shared by pointer; callers synchronize through the session's own
// methods.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[snowflake.ID]*domain.GuildSession
}

// NewMemoryStore creates a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[snowflake.ID]*domain.GuildSession),
	}
}

// GetOrCreate returns the guild's session, creating one with the given
// creator as DJ when none exists. The create is atomic: concurrent
// callers get the same session and exactly one sees created=true.
func (s *MemoryStore) GetOrCreate(guildID, creatorID snowflake.ID) (*domain.GuildSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[guildID]; ok {
		return session, false
	}
	session := domain.NewGuildSession(guildID, creatorID)
	s.sessions[guildID] = session
	return session, true
}

// Get returns the guild's session, or nil.
func (s *MemoryStore) Get(guildID snowflake.ID) *domain.GuildSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sessions[guildID]
}

// Delete removes the guild's session.
func (s *MemoryStore) Delete(guildID snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, guildID)
}

// Count returns the number of live sessions (for testing/monitoring).
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// Ensure MemoryStore implements SessionStore.
var _ domain.SessionStore = (*MemoryStore)(nil)
