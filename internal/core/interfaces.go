package core

import (
	"github.com/ProJect3K/DriveChat-kmitl/internal/domain"
)

// Conn is the transport endpoint of one member: a bidirectional text
// channel. Owned by the adapter; the adapter must Close() it.
type Conn interface {
	TrySend(text string) error
	Close()
}

// Member pairs a connection with the username bound to it at join time.
// This is what a room stores and fans out to.
type Member struct {
	Conn     Conn
	Username string
}

// RoomSummary is a read-only view for APIs (no transport fields).
type RoomSummary struct {
	Name          domain.RoomName  `json:"room"`
	Capacity      int              `json:"capacity"`
	MemberCount   int              `json:"member_count"`
	TimeRemaining int              `json:"time_remaining"`
	Permanent     bool             `json:"permanent"`
	Transport     domain.Transport `json:"transport_type"`
}
