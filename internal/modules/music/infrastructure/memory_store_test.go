package infrastructure

import (
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"
)

func TestMemoryStore_GetOrCreate(t *testing.T) {
	store := NewMemoryStore()
	guildID := snowflake.ID(1)
	creatorID := snowflake.ID(2)

	session, created := store.GetOrCreate(guildID, creatorID)
	if !created {
		t.Fatal("expected first call to create")
	}
	if session.DJ() != creatorID {
		t.Errorf("expected creator %v as dj, got %v", creatorID, session.DJ())
	}

	again, created := store.GetOrCreate(guildID, snowflake.ID(99))
	if created {
		t.Error("expected second call to reuse")
	}
	if again != session {
		t.Error("expected the same session instance")
	}
	if again.DJ() != creatorID {
		t.Errorf("expected dj unchanged, got %v", again.DJ())
	}
}

func TestMemoryStore_GetOrCreate_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	guildID := snowflake.ID(1)

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0

	for i := 0; i < 16; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created := store.GetOrCreate(guildID, snowflake.ID(i+1))
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if createdCount != 1 {
		t.Errorf("expected exactly one create, got %d", createdCount)
	}
	if store.Count() != 1 {
		t.Errorf("expected one session, got %d", store.Count())
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	guildID := snowflake.ID(1)

	store.GetOrCreate(guildID, snowflake.ID(2))
	store.Delete(guildID)

	if store.Get(guildID) != nil {
		t.Error("expected session to be gone")
	}

	// A later join starts from scratch.
	session, created := store.GetOrCreate(guildID, snowflake.ID(3))
	if !created {
		t.Fatal("expected a fresh session")
	}
	if session.DJ() != snowflake.ID(3) {
		t.Errorf("expected new creator as dj, got %v", session.DJ())
	}
}

func TestMemoryStore_Get_Missing(t *testing.T) {
	store := NewMemoryStore()
	if store.Get(snowflake.ID(404)) != nil {
		t.Error("expected nil for unknown guild")
	}
}
