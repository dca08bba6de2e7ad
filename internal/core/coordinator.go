package core

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ProJect3K/DriveChat-kmitl/internal/domain"
)

// ReturnCommand is the reserved control token a migrated user sends to go
// back to their origin room.
const ReturnCommand = "/return"

// Coordinator is the composition root: it wires registry, membership,
// return tracking, broadcasting and the timer scheduler behind the public
// operations the transport and HTTP layers call.
type Coordinator struct {
	Registry  *RoomRegistry
	Members   *MembershipTable
	Returns   *ReturnTracker
	Broadcast *BroadcastEngine
	Timers    *TimerScheduler
}

// Options describes the overflow room and the timer schedule.
type Options struct {
	Overflow     domain.Room
	CleanupGrace time.Duration
	// TransitionTotal is the full countdown; TransitionWarn is how long
	// before the deadline the warning goes out.
	TransitionTotal time.Duration
	TransitionWarn  time.Duration
}

func NewCoordinator(opts Options) *Coordinator {
	registry := NewRoomRegistry(opts.Overflow)
	members := NewMembershipTable(registry)
	returns := NewReturnTracker()
	broadcast := NewBroadcastEngine(members, registry)
	timers := NewTimerScheduler(registry, members, returns, broadcast, TimerConfig{
		Overflow:        opts.Overflow.Name,
		CleanupGrace:    opts.CleanupGrace,
		TransitionTotal: opts.TransitionTotal,
		TransitionWarn:  opts.TransitionWarn,
	})
	return &Coordinator{
		Registry:  registry,
		Members:   members,
		Returns:   returns,
		Broadcast: broadcast,
		Timers:    timers,
	}
}

// CreateRoom registers a new room and arms its transition countdown.
func (c *Coordinator) CreateRoom(name domain.RoomName, capacity int, transport domain.Transport, creator domain.Role) (domain.Room, error) {
	room, err := c.Registry.Create(name, capacity, transport, creator)
	if err != nil {
		return domain.Room{}, err
	}
	c.Timers.ScheduleTransition(name)
	return room, nil
}

// Connect attaches a connection to a room: cancel any pending cleanup,
// join, greet the newcomer, announce them, refresh the roster.
func (c *Coordinator) Connect(conn Conn, room domain.RoomName, username string) error {
	// Cancel before joining so the grace-period debounce can never delete
	// a room out from under its newest member.
	c.Timers.CancelCleanup(room)
	if err := c.Members.Join(room, conn, username); err != nil {
		return err
	}
	_ = conn.TrySend("System: You have joined the chat room.")
	c.Broadcast.Broadcast(room, fmt.Sprintf("System: %s joined the chat room.", username), conn)
	if msg, ok := c.Broadcast.UserListMessage(room); ok {
		c.Broadcast.Broadcast(room, msg, nil)
	}
	return nil
}

// Disconnect runs the cleanup sequence for a departing connection. Safe to
// call for a connection that never joined or was already removed.
func (c *Coordinator) Disconnect(conn Conn) {
	room, ok := c.Members.RoomOf(conn)
	if !ok {
		return
	}
	username, becameEmpty, err := c.Members.Leave(conn, room)
	if err != nil {
		return
	}
	c.Returns.Clear(username)
	c.Broadcast.Broadcast(room, fmt.Sprintf("System: %s left the chat room.", username), nil)
	if msg, ok := c.Broadcast.UserListMessage(room); ok {
		c.Broadcast.Broadcast(room, msg, nil)
	}
	if becameEmpty {
		c.Timers.ScheduleCleanup(room)
	}
}

// HandleMessage relays one inbound text frame. The return command is
// consumed when the user actually has somewhere to return to; anything
// else is chat, echoed to the whole room including the sender.
func (c *Coordinator) HandleMessage(conn Conn, username, text string) {
	if strings.EqualFold(strings.TrimSpace(text), ReturnCommand) {
		if _, ok := c.Returns.Get(username); ok {
			if c.Timers.ReturnToOrigin(username, conn) {
				return
			}
		}
	}
	room, ok := c.Members.RoomOf(conn)
	if !ok {
		log.Warn().Str("module", "core.coordinator").Str("user", username).Msg("message from connection without a room")
		return
	}
	c.Broadcast.Broadcast(room, fmt.Sprintf("%s: %s", username, text), nil)
}

// RandomRoom picks a joinable room for a passenger: matching transport,
// below capacity, never permanent. Nil for non-passengers or when nothing
// qualifies.
func (c *Coordinator) RandomRoom(transport domain.Transport, role domain.Role) *RoomSummary {
	if role != domain.RolePassenger {
		return nil
	}
	var candidates []domain.Room
	for _, room := range c.Registry.List() {
		if room.Permanent || room.Transport != transport {
			continue
		}
		if c.Members.MemberCount(room.Name) >= room.Capacity {
			continue
		}
		candidates = append(candidates, room)
	}
	if len(candidates) == 0 {
		return nil
	}
	pick := candidates[rand.IntN(len(candidates))]
	summary := c.summarize(pick)
	return &summary
}

// DebugSnapshot lists every live room with its occupancy and countdown.
func (c *Coordinator) DebugSnapshot() []RoomSummary {
	rooms := c.Registry.List()
	out := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, c.summarize(room))
	}
	return out
}

func (c *Coordinator) summarize(room domain.Room) RoomSummary {
	return RoomSummary{
		Name:          room.Name,
		Capacity:      room.Capacity,
		MemberCount:   c.Members.MemberCount(room.Name),
		TimeRemaining: int(room.TimeRemaining(time.Now()).Round(time.Second).Seconds()),
		Permanent:     room.Permanent,
		Transport:     room.Transport,
	}
}
