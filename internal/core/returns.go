package core

import (
	"sync"

	"github.com/ProJect3K/DriveChat-kmitl/internal/domain"
)

// ReturnEntry records the room a user was migrated out of, plus enough
// metadata to recreate it if the idle reaper got there first.
type ReturnEntry struct {
	Origin    domain.RoomName
	Capacity  int
	Transport domain.Transport
}

// ReturnTracker keeps at most one pending entry per username. Entries are
// created only by a forced migration and consumed by a successful return or
// by the user disconnecting.
type ReturnTracker struct {
	mu      sync.Mutex
	entries map[string]ReturnEntry
}

func NewReturnTracker() *ReturnTracker {
	return &ReturnTracker{entries: make(map[string]ReturnEntry)}
}

func (t *ReturnTracker) Set(username string, entry ReturnEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[username] = entry
}

func (t *ReturnTracker) Get(username string) (ReturnEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[username]
	return entry, ok
}

func (t *ReturnTracker) Clear(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, username)
}
