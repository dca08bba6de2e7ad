package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ProJect3K/DriveChat-kmitl/internal/domain"
)

func newTestRegistry() *RoomRegistry {
	return NewRoomRegistry(domain.Room{Name: testOverflow, Capacity: 15, Transport: domain.TransportBus})
}

func TestOverflowRoomBuiltIn(t *testing.T) {
	reg := newTestRegistry()

	room, err := reg.Get(testOverflow)
	require.NoError(t, err)
	assert.True(t, room.Permanent)
	assert.Equal(t, 15, room.Capacity)

	// Permanent rooms are never deleted.
	assert.ErrorIs(t, reg.Delete(testOverflow), domain.ErrForbidden)
	_, err = reg.Get(testOverflow)
	assert.NoError(t, err)
}

func TestCreateRoomValidation(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Create("bus-1", 15, domain.TransportBus, domain.RolePassenger)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = reg.Create("bus-1", 3, domain.TransportBus, domain.RoleDriver)
	assert.ErrorIs(t, err, domain.ErrInvalidCapacity)

	_, err = reg.Create("", 4, domain.TransportCar, domain.RoleDriver)
	assert.ErrorIs(t, err, domain.ErrRoomNameEmpty)

	room, err := reg.Create("bus-1", 15, domain.TransportBus, domain.RoleDriver)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomName("bus-1"), room.Name)
	assert.False(t, room.Permanent)
	assert.True(t, room.NextTransitionAt.IsZero())

	_, err = reg.Create("bus-1", 15, domain.TransportBus, domain.RoleDriver)
	assert.ErrorIs(t, err, domain.ErrRoomExists)
}

func TestDeleteRoom(t *testing.T) {
	reg := newTestRegistry()

	assert.ErrorIs(t, reg.Delete("ghost"), domain.ErrRoomNotFound)

	_, err := reg.Create("car-1", 4, domain.TransportCar, domain.RoleDriver)
	require.NoError(t, err)
	require.NoError(t, reg.Delete("car-1"))
	_, err = reg.Get("car-1")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRestoreRoom(t *testing.T) {
	reg := newTestRegistry()

	reg.Restore(domain.Room{Name: "bus-7", Capacity: 15, Transport: domain.TransportBus})
	room, err := reg.Get("bus-7")
	require.NoError(t, err)
	assert.False(t, room.Permanent)

	// Restoring over a live room keeps the live one.
	reg.SetNextTransition("bus-7", time.Now().Add(time.Minute))
	reg.Restore(domain.Room{Name: "bus-7", Capacity: 2, Transport: domain.TransportBike})
	room, err = reg.Get("bus-7")
	require.NoError(t, err)
	assert.Equal(t, 15, room.Capacity)
	assert.False(t, room.NextTransitionAt.IsZero())
}

func TestSetNextTransition(t *testing.T) {
	reg := newTestRegistry()
	_, err := reg.Create("bus-2", 15, domain.TransportBus, domain.RoleDriver)
	require.NoError(t, err)

	at := time.Now().Add(3 * time.Minute)
	reg.SetNextTransition("bus-2", at)
	room, err := reg.Get("bus-2")
	require.NoError(t, err)
	assert.Equal(t, at, room.NextTransitionAt)
	assert.InDelta(t, (3 * time.Minute).Seconds(), room.TimeRemaining(time.Now()).Seconds(), 1)
}
