package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ProJect3K/DriveChat-kmitl/internal/domain"
)

// TimerConfig carries the scheduling knobs and the migration target.
type TimerConfig struct {
	Overflow        domain.RoomName
	CleanupGrace    time.Duration
	TransitionTotal time.Duration
	TransitionWarn  time.Duration
}

// TimerScheduler owns the cancellable per-room jobs: the idle-cleanup
// debounce and the transition countdown, plus the mass-migration and
// return flows those jobs drive. Each room has at most one live timer of
// each kind; scheduling a new one supersedes the previous.
type TimerScheduler struct {
	mu         sync.Mutex
	cleanup    map[domain.RoomName]*time.Timer
	transition map[domain.RoomName]*time.Timer

	registry  *RoomRegistry
	members   *MembershipTable
	returns   *ReturnTracker
	broadcast *BroadcastEngine

	cfg TimerConfig
}

func NewTimerScheduler(registry *RoomRegistry, members *MembershipTable, returns *ReturnTracker, broadcast *BroadcastEngine, cfg TimerConfig) *TimerScheduler {
	return &TimerScheduler{
		cleanup:    make(map[domain.RoomName]*time.Timer),
		transition: make(map[domain.RoomName]*time.Timer),
		registry:   registry,
		members:    members,
		returns:    returns,
		broadcast:  broadcast,
		cfg:        cfg,
	}
}

// ScheduleCleanup starts the idle-cleanup debounce for a room that just
// became empty. Permanent rooms are never reclaimed.
func (s *TimerScheduler) ScheduleCleanup(room domain.RoomName) {
	r, err := s.registry.Get(room)
	if err != nil || r.Permanent {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.cleanup[room]; ok {
		t.Stop()
	}
	s.cleanup[room] = time.AfterFunc(s.cfg.CleanupGrace, func() { s.cleanupFire(room) })
	log.Debug().Str("module", "core.timers").Str("room", string(room)).Dur("grace", s.cfg.CleanupGrace).Msg("cleanup scheduled")
}

// CancelCleanup stops a pending cleanup timer. Idempotent; the common case
// is a rejoin during the grace period.
func (s *TimerScheduler) CancelCleanup(room domain.RoomName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.cleanup[room]; ok {
		t.Stop()
		delete(s.cleanup, room)
	}
}

func (s *TimerScheduler) cleanupFire(room domain.RoomName) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("module", "core.timers").Str("room", string(room)).Interface("panic", p).Msg("cleanup timer failed")
		}
	}()
	s.mu.Lock()
	delete(s.cleanup, room)
	s.mu.Unlock()

	// The emptiness re-check runs under the membership lock, so a join
	// that won the race keeps the room alive.
	if s.members.ReapIfEmpty(room) {
		s.CancelTransition(room)
		log.Info().Str("module", "core.timers").Str("room", string(room)).Msg("idle room reclaimed")
	}
}

// ScheduleTransition arms the countdown on a freshly created (or restored)
// non-permanent room and records the deadline on the room metadata.
func (s *TimerScheduler) ScheduleTransition(room domain.RoomName) {
	r, err := s.registry.Get(room)
	if err != nil || r.Permanent {
		return
	}
	deadline := time.Now().Add(s.cfg.TransitionTotal)
	s.registry.SetNextTransition(room, deadline)

	warnAfter := s.cfg.TransitionTotal - s.cfg.TransitionWarn
	if warnAfter < 0 {
		warnAfter = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.transition[room]; ok {
		t.Stop()
	}
	s.transition[room] = time.AfterFunc(warnAfter, func() { s.warnAndMigrate(room) })
	log.Info().Str("module", "core.timers").Str("room", string(room)).Time("at", deadline).Msg("transition scheduled")
}

// CancelTransition stops a pending countdown. Idempotent. A countdown that
// already reached the warning stage runs to completion.
func (s *TimerScheduler) CancelTransition(room domain.RoomName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.transition[room]; ok {
		t.Stop()
		delete(s.transition, room)
	}
}

// CancelAll drops both timer kinds for a room.
func (s *TimerScheduler) CancelAll(room domain.RoomName) {
	s.CancelCleanup(room)
	s.CancelTransition(room)
}

// warnAndMigrate is the fired countdown: warn the room, wait out the last
// stretch, then migrate. A failure in the warning stage never skips the
// migration.
func (s *TimerScheduler) warnAndMigrate(room domain.RoomName) {
	func() {
		defer func() {
			if p := recover(); p != nil {
				log.Error().Str("module", "core.timers").Str("room", string(room)).Interface("panic", p).Msg("transition warning failed, migrating anyway")
			}
		}()
		warn := fmt.Sprintf("System: Room %s will transition to %s in %d seconds.",
			room, s.cfg.Overflow, int(s.cfg.TransitionWarn.Seconds()))
		s.broadcast.Broadcast(room, warn, nil)
		time.Sleep(s.cfg.TransitionWarn)
	}()

	s.mu.Lock()
	delete(s.transition, room)
	s.mu.Unlock()
	s.Migrate(room)
}

// Migrate sweeps every member of source into the overflow room, recording a
// return entry per user. The source is cleared up front, so a join racing
// the sweep lands in a fresh, still-existing epoch of the room.
func (s *TimerScheduler) Migrate(source domain.RoomName) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("module", "core.timers").Str("room", string(source)).Interface("panic", p).Msg("migration failed")
		}
	}()

	r, err := s.registry.Get(source)
	if err != nil || r.Permanent {
		return
	}
	moved := s.members.MoveAll(source)
	if len(moved) == 0 {
		return
	}

	for _, mb := range moved {
		s.returns.Set(mb.Username, ReturnEntry{Origin: source, Capacity: r.Capacity, Transport: r.Transport})
		s.members.Admit(s.cfg.Overflow, mb)
		if err := mb.Conn.TrySend(fmt.Sprintf("System: Room %s transitioned. You have been moved to %s.", source, s.cfg.Overflow)); err != nil {
			log.Warn().Err(err).Str("module", "core.timers").Str("user", mb.Username).Msg("migration notice failed")
		}
		_ = mb.Conn.TrySend("ROOM_CHANGE:" + string(s.cfg.Overflow))
		s.broadcast.Broadcast(s.cfg.Overflow, fmt.Sprintf("System: %s joined the chat room.", mb.Username), mb.Conn)
		if msg, ok := s.broadcast.UserListMessage(s.cfg.Overflow); ok {
			s.broadcast.Broadcast(s.cfg.Overflow, msg, nil)
		}
	}

	if s.members.ReapIfEmpty(source) {
		s.CancelAll(source)
	} else {
		// Survivors of a join-vs-migration race keep the room as a new
		// epoch with its own countdown.
		s.ScheduleTransition(source)
	}
	log.Info().Str("module", "core.timers").Str("room", string(source)).Str("target", string(s.cfg.Overflow)).Int("moved", len(moved)).Msg("room migrated")
}

// ReturnToOrigin moves a previously migrated user back to their recorded
// origin room, recreating it if the reaper already deleted it. Reports
// false when there is nothing to return to.
func (s *TimerScheduler) ReturnToOrigin(username string, conn Conn) bool {
	entry, ok := s.returns.Get(username)
	if !ok {
		return false
	}
	current, ok := s.members.RoomOf(conn)
	if !ok || current == entry.Origin {
		return false
	}

	if _, err := s.registry.Get(entry.Origin); err != nil {
		s.registry.Restore(domain.Room{Name: entry.Origin, Capacity: entry.Capacity, Transport: entry.Transport})
		s.ScheduleTransition(entry.Origin)
	}
	s.CancelCleanup(entry.Origin)
	if err := s.members.Move(conn, current, entry.Origin, username); err != nil {
		return false
	}
	s.returns.Clear(username)

	s.broadcast.Broadcast(current, fmt.Sprintf("System: %s left the chat room.", username), nil)
	if msg, ok := s.broadcast.UserListMessage(current); ok {
		s.broadcast.Broadcast(current, msg, nil)
	}
	if s.members.MemberCount(current) == 0 {
		s.ScheduleCleanup(current)
	}

	s.broadcast.Broadcast(entry.Origin, fmt.Sprintf("System: %s returned to the chat room.", username), conn)
	_ = conn.TrySend("ROOM_CHANGE:" + string(entry.Origin))
	if msg, ok := s.broadcast.UserListMessage(entry.Origin); ok {
		s.broadcast.Broadcast(entry.Origin, msg, nil)
	}
	log.Info().Str("module", "core.timers").Str("user", username).Str("room", string(entry.Origin)).Msg("user returned to origin")
	return true
}
