package domain

import (
	"errors"
	"time"
)

type (
	RoomName  string
	Transport string
)

const (
	TransportBike     Transport = "bike"
	TransportCar      Transport = "car"
	TransportLocation Transport = "location"
	TransportBus      Transport = "bus"
)

const MaxRoomNameLen = 36

// AllowedCapacities mirrors the per-transport seat counts the clients offer.
var AllowedCapacities = map[int]bool{2: true, 4: true, 10: true, 15: true}

var (
	ErrRoomExists      = errors.New("room already exists")
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrInvalidCapacity = errors.New("capacity not allowed")
	ErrForbidden       = errors.New("only drivers can create rooms")
	ErrRoomNameEmpty   = errors.New("room name empty")
	ErrRoomNameTooLong = errors.New("room name too long")
	ErrNotMember       = errors.New("not a member of the room")
	ErrAlreadyJoined   = errors.New("connection already joined a room")
)

type Room struct {
	Name      RoomName
	Capacity  int
	Transport Transport
	// Permanent rooms are never reclaimed or transitioned; they are the
	// destination of forced migrations.
	Permanent bool
	// NextTransitionAt is zero when no countdown is scheduled.
	NextTransitionAt time.Time
}

// NewRoom validates the caller-supplied fields. Permanence and the
// transition timestamp are owned by the registry, not the caller.
func NewRoom(name RoomName, capacity int, transport Transport) (*Room, error) {
	if len(name) == 0 {
		return nil, ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLen {
		return nil, ErrRoomNameTooLong
	}
	if !AllowedCapacities[capacity] {
		return nil, ErrInvalidCapacity
	}
	return &Room{Name: name, Capacity: capacity, Transport: transport}, nil
}

// TimeRemaining reports how long until the scheduled transition, zero when
// none is scheduled or the deadline already passed.
func (r *Room) TimeRemaining(now time.Time) time.Duration {
	if r.NextTransitionAt.IsZero() {
		return 0
	}
	d := r.NextTransitionAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
