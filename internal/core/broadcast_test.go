package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ProJect3K/DriveChat-kmitl/internal/domain"
)

func TestBroadcastExcludesAndCountsFailures(t *testing.T) {
	m, reg := newTestMembership(t)
	b := NewBroadcastEngine(m, reg)
	_, err := reg.Create("car-9", 4, domain.TransportCar, domain.RoleDriver)
	require.NoError(t, err)

	alice := &fakeConn{}
	bob := &fakeConn{}
	broken := &fakeConn{fail: true}
	require.NoError(t, m.Join("car-9", alice, "alice"))
	require.NoError(t, m.Join("car-9", bob, "bob"))
	require.NoError(t, m.Join("car-9", broken, "carol"))

	failed := b.Broadcast("car-9", "hello", alice)
	assert.Equal(t, 1, failed)
	assert.Empty(t, alice.messages())
	assert.Equal(t, []string{"hello"}, bob.messages())

	// One broken member never blocks the rest.
	failed = b.Broadcast("car-9", "again", nil)
	assert.Equal(t, 1, failed)
	assert.True(t, alice.received("again"))
	assert.True(t, bob.received("again"))
}

func TestUserListMessage(t *testing.T) {
	m, reg := newTestMembership(t)
	b := NewBroadcastEngine(m, reg)
	_, err := reg.Create("bus-42", 2, domain.TransportBus, domain.RoleDriver)
	require.NoError(t, err)

	require.NoError(t, m.Join("bus-42", &fakeConn{}, "alice"))
	require.NoError(t, m.Join("bus-42", &fakeConn{}, "bob"))

	msg, ok := b.UserListMessage("bus-42")
	require.True(t, ok)
	assert.Equal(t, "Active users (2/2): alice, bob", msg)

	reg.SetNextTransition("bus-42", time.Now().Add(90*time.Second))
	msg, ok = b.UserListMessage("bus-42")
	require.True(t, ok)
	assert.Equal(t, "Active users (2/2): alice, bob | Time remaining: 1m 30s", msg)

	_, ok = b.UserListMessage("ghost")
	assert.False(t, ok)
}
