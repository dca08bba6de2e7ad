package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ProJect3K/DriveChat-kmitl/internal/domain"
)

// BroadcastEngine fans a text frame out to the members of a room in join
// order. Send failures are counted, never raised: one unreachable member
// must not block delivery to the rest.
type BroadcastEngine struct {
	members  *MembershipTable
	registry *RoomRegistry
}

func NewBroadcastEngine(members *MembershipTable, registry *RoomRegistry) *BroadcastEngine {
	return &BroadcastEngine{members: members, registry: registry}
}

// Broadcast sends text to every member of room except exclude (nil means
// nobody is excluded) and returns the number of failed sends.
func (b *BroadcastEngine) Broadcast(room domain.RoomName, text string, exclude Conn) int {
	failed := 0
	for _, mb := range b.members.Members(room) {
		if exclude != nil && mb.Conn == exclude {
			continue
		}
		if err := mb.Conn.TrySend(text); err != nil {
			failed++
			log.Warn().Err(err).Str("module", "core.broadcast").Str("room", string(room)).Str("user", mb.Username).Msg("send failed")
		}
	}
	return failed
}

// UserListMessage formats the active-user roster for a room, with the
// transition countdown appended when one is scheduled. Reports false when
// the room no longer exists.
func (b *BroadcastEngine) UserListMessage(room domain.RoomName) (string, bool) {
	r, err := b.registry.Get(room)
	if err != nil {
		return "", false
	}
	names := b.members.Usernames(room)
	msg := fmt.Sprintf("Active users (%d/%d): %s", len(names), r.Capacity, strings.Join(names, ", "))
	if remaining := r.TimeRemaining(time.Now()); remaining > 0 {
		secs := int(remaining.Round(time.Second).Seconds())
		msg += fmt.Sprintf(" | Time remaining: %dm %ds", secs/60, secs%60)
	}
	return msg, true
}
