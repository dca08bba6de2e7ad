package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ProJect3K/DriveChat-kmitl/internal/domain"
)

func TestBusRoomFillsUp(t *testing.T) {
	c := newSlowCoordinator()
	_, err := c.CreateRoom("bus-42", 2, domain.TransportBus, domain.RoleDriver)
	require.NoError(t, err)

	alice := &fakeConn{}
	bob := &fakeConn{}
	require.NoError(t, c.Connect(alice, "bus-42", "alice"))
	require.NoError(t, c.Connect(bob, "bus-42", "bob"))

	found := false
	for _, m := range alice.messages() {
		if strings.HasPrefix(m, "Active users (2/2): alice, bob") {
			found = true
		}
	}
	assert.True(t, found, "roster broadcast reads Active users (2/2): alice, bob")

	carol := &fakeConn{}
	assert.ErrorIs(t, c.Connect(carol, "bus-42", "carol"), domain.ErrRoomFull)
	assert.Empty(t, carol.messages())
}

func TestConnectNotices(t *testing.T) {
	c := newSlowCoordinator()
	_, err := c.CreateRoom("car-1", 4, domain.TransportCar, domain.RoleDriver)
	require.NoError(t, err)

	alice := &fakeConn{}
	require.NoError(t, c.Connect(alice, "car-1", "alice"))
	assert.True(t, alice.received("System: You have joined the chat room."))
	assert.False(t, alice.received("System: alice joined the chat room."), "the join notice excludes the newcomer")

	bob := &fakeConn{}
	require.NoError(t, c.Connect(bob, "car-1", "bob"))
	assert.True(t, alice.received("System: bob joined the chat room."))
	assert.True(t, bob.received("System: You have joined the chat room."))
}

func TestDisconnectNotices(t *testing.T) {
	c := newSlowCoordinator()
	_, err := c.CreateRoom("car-1", 4, domain.TransportCar, domain.RoleDriver)
	require.NoError(t, err)

	alice, bob := &fakeConn{}, &fakeConn{}
	require.NoError(t, c.Connect(alice, "car-1", "alice"))
	require.NoError(t, c.Connect(bob, "car-1", "bob"))

	c.Disconnect(bob)
	assert.True(t, alice.received("System: bob left the chat room."))
	assert.Equal(t, []string{"alice"}, c.Members.Usernames("car-1"))

	// A second disconnect of the same connection is a no-op.
	c.Disconnect(bob)
	assert.Equal(t, 1, c.Members.MemberCount("car-1"))
}

func TestChatEchoIncludesSender(t *testing.T) {
	c := newSlowCoordinator()
	_, err := c.CreateRoom("car-1", 4, domain.TransportCar, domain.RoleDriver)
	require.NoError(t, err)

	alice, bob := &fakeConn{}, &fakeConn{}
	require.NoError(t, c.Connect(alice, "car-1", "alice"))
	require.NoError(t, c.Connect(bob, "car-1", "bob"))

	c.HandleMessage(alice, "alice", "hello there")
	assert.True(t, alice.received("alice: hello there"), "sender sees their own echo")
	assert.True(t, bob.received("alice: hello there"))
}

func TestDisconnectClearsReturnEntry(t *testing.T) {
	c := newSlowCoordinator()
	_, err := c.CreateRoom("bus-7", 15, domain.TransportBus, domain.RoleDriver)
	require.NoError(t, err)

	dan := &fakeConn{}
	require.NoError(t, c.Connect(dan, "bus-7", "dan"))
	c.Timers.Migrate("bus-7")
	_, ok := c.Returns.Get("dan")
	require.True(t, ok)

	c.Disconnect(dan)
	_, ok = c.Returns.Get("dan")
	assert.False(t, ok, "disconnecting consumes the pending return entry")
}

func TestRandomRoomRoleGate(t *testing.T) {
	c := newSlowCoordinator()
	_, err := c.CreateRoom("car-1", 4, domain.TransportCar, domain.RoleDriver)
	require.NoError(t, err)

	assert.Nil(t, c.RandomRoom(domain.TransportCar, domain.RoleDriver))
	assert.Nil(t, c.RandomRoom(domain.TransportCar, "stowaway"))
	assert.NotNil(t, c.RandomRoom(domain.TransportCar, domain.RolePassenger))
}

func TestRandomRoomFilters(t *testing.T) {
	c := newSlowCoordinator()
	_, err := c.CreateRoom("car-1", 4, domain.TransportCar, domain.RoleDriver)
	require.NoError(t, err)
	_, err = c.CreateRoom("bike-1", 2, domain.TransportBike, domain.RoleDriver)
	require.NoError(t, err)

	// Fill the bike room to capacity.
	require.NoError(t, c.Connect(&fakeConn{}, "bike-1", "a"))
	require.NoError(t, c.Connect(&fakeConn{}, "bike-1", "b"))

	assert.Nil(t, c.RandomRoom(domain.TransportBike, domain.RolePassenger), "full rooms are not offered")
	assert.Nil(t, c.RandomRoom(domain.TransportLocation, domain.RolePassenger), "no candidates for an unused transport")

	// The overflow room is a bus room but permanent, so a bus passenger
	// gets nothing.
	assert.Nil(t, c.RandomRoom(domain.TransportBus, domain.RolePassenger))

	got := c.RandomRoom(domain.TransportCar, domain.RolePassenger)
	require.NotNil(t, got)
	assert.Equal(t, domain.RoomName("car-1"), got.Name)
	assert.Equal(t, 4, got.Capacity)
	assert.Equal(t, 0, got.MemberCount)
	assert.Greater(t, got.TimeRemaining, 0, "created rooms carry a countdown")
}

func TestDebugSnapshot(t *testing.T) {
	c := newSlowCoordinator()
	_, err := c.CreateRoom("bus-42", 2, domain.TransportBus, domain.RoleDriver)
	require.NoError(t, err)
	require.NoError(t, c.Connect(&fakeConn{}, "bus-42", "alice"))

	snaps := c.DebugSnapshot()
	byName := make(map[domain.RoomName]RoomSummary, len(snaps))
	for _, s := range snaps {
		byName[s.Name] = s
	}

	require.Contains(t, byName, testOverflow)
	assert.True(t, byName[testOverflow].Permanent)
	assert.Equal(t, 15, byName[testOverflow].Capacity)

	require.Contains(t, byName, domain.RoomName("bus-42"))
	assert.Equal(t, 1, byName["bus-42"].MemberCount)
	assert.False(t, byName["bus-42"].Permanent)
	assert.Equal(t, domain.TransportBus, byName["bus-42"].Transport)
}
