package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ProJect3K/DriveChat-kmitl/internal/domain"
)

// RoomRegistry owns room metadata. It knows nothing about connections;
// membership lives in MembershipTable.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]*domain.Room
}

// NewRoomRegistry seeds the registry with the permanent overflow room so it
// exists before any traffic.
func NewRoomRegistry(overflow domain.Room) *RoomRegistry {
	overflow.Permanent = true
	r := &RoomRegistry{rooms: make(map[domain.RoomName]*domain.Room)}
	r.rooms[overflow.Name] = &overflow
	log.Info().Str("module", "core.registry").Str("room", string(overflow.Name)).Int("capacity", overflow.Capacity).Msg("overflow room ready")
	return r
}

func (r *RoomRegistry) Create(name domain.RoomName, capacity int, transport domain.Transport, creator domain.Role) (domain.Room, error) {
	if creator != domain.RoleDriver {
		return domain.Room{}, domain.ErrForbidden
	}
	room, err := domain.NewRoom(name, capacity, transport)
	if err != nil {
		return domain.Room{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[name]; ok {
		return domain.Room{}, domain.ErrRoomExists
	}
	r.rooms[name] = room
	log.Info().Str("module", "core.registry").Str("room", string(name)).Int("capacity", capacity).Str("transport", string(transport)).Msg("room created")
	return *room, nil
}

// Restore re-inserts a previously reclaimed room, used when a migrated user
// returns to an origin that was already deleted. No-op if the name is live.
func (r *RoomRegistry) Restore(room domain.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[room.Name]; ok {
		return
	}
	room.Permanent = false
	room.NextTransitionAt = time.Time{}
	r.rooms[room.Name] = &room
	log.Info().Str("module", "core.registry").Str("room", string(room.Name)).Msg("room restored")
}

func (r *RoomRegistry) Get(name domain.RoomName) (domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[name]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return *room, nil
}

// Delete removes a non-permanent room. Deleting a permanent room is refused,
// deleting an absent one reports ErrRoomNotFound.
func (r *RoomRegistry) Delete(name domain.RoomName) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[name]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if room.Permanent {
		return domain.ErrForbidden
	}
	delete(r.rooms, name)
	log.Info().Str("module", "core.registry").Str("room", string(name)).Msg("room deleted")
	return nil
}

// SetNextTransition records the countdown deadline for observability.
// A zero time clears it.
func (r *RoomRegistry) SetNextTransition(name domain.RoomName, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[name]; ok {
		room.NextTransitionAt = at
	}
}

// List returns a value snapshot of every room.
func (r *RoomRegistry) List() []domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, *room)
	}
	return out
}
