package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ProJect3K/DriveChat-kmitl/internal/domain"
)

// MembershipTable owns, per room, the ordered list of members (insertion
// order = join order). Every check-then-mutate sequence runs under one lock
// so the capacity and reclamation invariants hold against concurrent
// joins, leaves and migrations. Lock ordering is always table then registry.
type MembershipTable struct {
	mu       sync.Mutex
	registry *RoomRegistry
	rooms    map[domain.RoomName][]Member
	byConn   map[Conn]domain.RoomName
}

func NewMembershipTable(registry *RoomRegistry) *MembershipTable {
	return &MembershipTable{
		registry: registry,
		rooms:    make(map[domain.RoomName][]Member),
		byConn:   make(map[Conn]domain.RoomName),
	}
}

// Join appends the connection to the room, enforcing capacity atomically
// with the registry lookup.
func (m *MembershipTable) Join(room domain.RoomName, conn Conn, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.registry.Get(room)
	if err != nil {
		return err
	}
	if _, ok := m.byConn[conn]; ok {
		return domain.ErrAlreadyJoined
	}
	if len(m.rooms[room]) >= r.Capacity {
		return domain.ErrRoomFull
	}
	m.rooms[room] = append(m.rooms[room], Member{Conn: conn, Username: username})
	m.byConn[conn] = room
	log.Info().Str("module", "core.membership").Str("room", string(room)).Str("user", username).Int("count", len(m.rooms[room])).Msg("member joined")
	return nil
}

// Leave removes the connection from the room and reports whether the room
// is now empty.
func (m *MembershipTable) Leave(conn Conn, room domain.RoomName) (username string, becameEmpty bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members := m.rooms[room]
	idx := -1
	for i, mb := range members {
		if mb.Conn == conn {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", false, domain.ErrNotMember
	}
	username = members[idx].Username
	m.rooms[room] = append(members[:idx:idx], members[idx+1:]...)
	delete(m.byConn, conn)
	becameEmpty = len(m.rooms[room]) == 0
	if becameEmpty {
		delete(m.rooms, room)
	}
	log.Info().Str("module", "core.membership").Str("room", string(room)).Str("user", username).Bool("empty", becameEmpty).Msg("member left")
	return username, becameEmpty, nil
}

// MoveAll atomically snapshots and clears all members of room, returning
// them in join order. The caller re-adds them one by one so a failed
// notification mid-migration can never orphan a member in neither room.
func (m *MembershipTable) MoveAll(room domain.RoomName) []Member {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := m.rooms[room]
	delete(m.rooms, room)
	for _, mb := range members {
		delete(m.byConn, mb.Conn)
	}
	return members
}

// Admit appends a member without a capacity check; the migration and return
// paths transfer ownership of an already-admitted connection.
func (m *MembershipTable) Admit(room domain.RoomName, mb Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room] = append(m.rooms[room], mb)
	m.byConn[mb.Conn] = room
}

// Move transfers the connection from one room to another in a single
// critical section.
func (m *MembershipTable) Move(conn Conn, from, to domain.RoomName, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	members := m.rooms[from]
	idx := -1
	for i, mb := range members {
		if mb.Conn == conn {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ErrNotMember
	}
	m.rooms[from] = append(members[:idx:idx], members[idx+1:]...)
	if len(m.rooms[from]) == 0 {
		delete(m.rooms, from)
	}
	m.rooms[to] = append(m.rooms[to], Member{Conn: conn, Username: username})
	m.byConn[conn] = to
	log.Info().Str("module", "core.membership").Str("user", username).Str("from", string(from)).Str("to", string(to)).Msg("member moved")
	return nil
}

// RoomOf reports which room currently owns the connection.
func (m *MembershipTable) RoomOf(conn Conn) (domain.RoomName, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.byConn[conn]
	return room, ok
}

func (m *MembershipTable) MemberCount(room domain.RoomName) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms[room])
}

// Members returns a snapshot safe to iterate while broadcasting.
func (m *MembershipTable) Members(room domain.RoomName) []Member {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Member, len(m.rooms[room]))
	copy(out, m.rooms[room])
	return out
}

// Usernames returns the member names in join order.
func (m *MembershipTable) Usernames(room domain.RoomName) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.rooms[room]))
	for _, mb := range m.rooms[room] {
		out = append(out, mb.Username)
	}
	return out
}

// ReapIfEmpty deletes the room from the registry if it still has no
// members. The emptiness re-check and the delete share the same lock that
// grants a concurrent Join, so a client can never observe deletion of a
// room it just joined.
func (m *MembershipTable) ReapIfEmpty(room domain.RoomName) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rooms[room]) > 0 {
		return false
	}
	if err := m.registry.Delete(room); err != nil {
		return false
	}
	delete(m.rooms, room)
	return true
}
