package core

import (
	"errors"
	"sync"
	"time"

	"github.com/ProJect3K/DriveChat-kmitl/internal/domain"
)

// fakeConn is an in-memory core.Conn capturing everything sent to it.
type fakeConn struct {
	mu     sync.Mutex
	msgs   []string
	fail   bool
	onSend func(text string)
}

func (f *fakeConn) TrySend(text string) error {
	f.mu.Lock()
	if f.fail {
		f.mu.Unlock()
		return errors.New("broken pipe")
	}
	f.msgs = append(f.msgs, text)
	cb := f.onSend
	f.mu.Unlock()
	if cb != nil {
		cb(text)
	}
	return nil
}

func (f *fakeConn) Close() {}

func (f *fakeConn) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.msgs))
	copy(out, f.msgs)
	return out
}

func (f *fakeConn) received(want string) bool {
	for _, m := range f.messages() {
		if m == want {
			return true
		}
	}
	return false
}

const testOverflow = domain.RoomName("overflow-bus")

func newTestCoordinator(grace, total, warn time.Duration) *Coordinator {
	return NewCoordinator(Options{
		Overflow: domain.Room{
			Name:      testOverflow,
			Capacity:  15,
			Transport: domain.TransportBus,
		},
		CleanupGrace:    grace,
		TransitionTotal: total,
		TransitionWarn:  warn,
	})
}

// newSlowCoordinator keeps every timer far in the future so tests can
// drive the migration and return flows directly.
func newSlowCoordinator() *Coordinator {
	return newTestCoordinator(time.Hour, time.Hour, time.Minute)
}
