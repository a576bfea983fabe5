// reminder/scheduler.go
package reminder

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dispatcher is the fire-time callback target. Implemented by
// MessageDispatcher; tests substitute a recorder.
type Dispatcher interface {
	Dispatch(gameID uint, kind Kind)
}

// reminderKey is the typed identity of one scheduled callback.
type reminderKey struct {
	gameID uint
	kind   Kind
}

// Scheduler derives reminder fire times from game start times and keeps at
// most one live timer per (game, kind). Registration and teardown for the
// same key serialize on the mutex; the persisted row's pending→sent
// conditional update resolves a teardown racing an in-flight fire.
type Scheduler struct {
	repo       ReminderRepository
	dispatcher Dispatcher
	logger     *zap.Logger
	grace      time.Duration

	mu     sync.Mutex
	timers map[reminderKey]*time.Timer

	now func() time.Time // injectable for tests
}

// NewScheduler constructs a scheduler with the given grace window.
func NewScheduler(repo ReminderRepository, dispatcher Dispatcher, grace time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
		grace:      grace,
		timers:     make(map[reminderKey]*time.Timer),
		now:        time.Now,
	}
}

// Schedule registers both reminders for a game. Per kind: a fire time more
// than the grace window ahead gets a timer; one within the grace window
// (either side) dispatches immediately; anything older is skipped as too
// late to be useful.
func (s *Scheduler) Schedule(gameID uint, startTime time.Time) {
	for _, kind := range Kinds {
		s.scheduleOne(gameID, kind, startTime.Add(-kind.Offset()))
	}
}

// Reschedule tears down both reminders and derives fresh ones from the new
// start time.
func (s *Scheduler) Reschedule(gameID uint, startTime time.Time) {
	s.CancelAll(gameID)
	s.Schedule(gameID, startTime)
}

// CancelAll tears down both reminders for a game. Idempotent: cancelling a
// game with no live reminders is a no-op. A callback already in flight may
// still complete; the dispatcher's cancelled-game check makes that harmless.
func (s *Scheduler) CancelAll(gameID uint) {
	s.mu.Lock()
	for _, kind := range Kinds {
		key := reminderKey{gameID: gameID, kind: kind}
		if t, ok := s.timers[key]; ok {
			t.Stop()
			delete(s.timers, key)
		}
	}
	s.mu.Unlock()

	if err := s.repo.DeleteForGame(gameID); err != nil {
		s.logger.Error("failed to delete reminders",
			zap.Uint("game_id", gameID), zap.Error(err))
	}
}

// RestorePending re-arms persisted pending reminders after a restart, using
// the same grace rule as live scheduling.
func (s *Scheduler) RestorePending() error {
	rems, err := s.repo.ListPending()
	if err != nil {
		return err
	}

	now := s.now()
	for _, rem := range rems {
		key := reminderKey{gameID: rem.GameID, kind: rem.Kind}
		switch {
		case rem.FireAt.Sub(now) > s.grace:
			s.arm(key, rem.ID, rem.FireAt.Sub(now))
		case now.Sub(rem.FireAt) <= s.grace:
			s.claimAndDispatch(key, rem.ID)
		default:
			if err := s.repo.MarkSkipped(rem.ID); err != nil {
				s.logger.Warn("failed to skip stale reminder",
					zap.Uint("reminder_id", rem.ID), zap.Error(err))
			}
		}
	}

	s.logger.Info("restored pending reminders", zap.Int("count", len(rems)))
	return nil
}

func (s *Scheduler) scheduleOne(gameID uint, kind Kind, fireAt time.Time) {
	now := s.now()
	key := reminderKey{gameID: gameID, kind: kind}

	switch {
	case fireAt.Sub(now) > s.grace:
		rem := &Reminder{GameID: gameID, Kind: kind, FireAt: fireAt, Status: StatusPending}
		if err := s.repo.Replace(rem); err != nil {
			s.logger.Error("failed to persist reminder",
				zap.Uint("game_id", gameID), zap.String("kind", string(kind)), zap.Error(err))
			return
		}
		s.arm(key, rem.ID, fireAt.Sub(now))

	case now.Sub(fireAt) <= s.grace:
		// The boundary is already upon us; dispatch now instead of arming a
		// timer inside the grace window.
		rem := &Reminder{GameID: gameID, Kind: kind, FireAt: fireAt, Status: StatusSent}
		if err := s.repo.Replace(rem); err != nil {
			s.logger.Error("failed to persist reminder",
				zap.Uint("game_id", gameID), zap.String("kind", string(kind)), zap.Error(err))
			return
		}
		go s.dispatcher.Dispatch(gameID, kind)

	default:
		// Missed by more than the grace window; too late to be useful.
		s.logger.Debug("skipping stale reminder",
			zap.Uint("game_id", gameID), zap.String("kind", string(kind)),
			zap.Time("fire_at", fireAt))
	}
}

// arm replaces any live timer for the key. Last writer wins; a duplicate key
// can never accumulate a second timer.
func (s *Scheduler) arm(key reminderKey, reminderID uint, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.timers[key] = time.AfterFunc(d, func() {
		s.fire(key, reminderID)
	})
}

func (s *Scheduler) fire(key reminderKey, reminderID uint) {
	s.mu.Lock()
	delete(s.timers, key)
	s.mu.Unlock()

	s.claimAndDispatch(key, reminderID)
}

// claimAndDispatch flips the row pending→sent and dispatches on success. A
// row already replaced or torn down fails the claim and nothing is sent.
func (s *Scheduler) claimAndDispatch(key reminderKey, reminderID uint) {
	claimed, err := s.repo.MarkSent(reminderID)
	if err != nil {
		s.logger.Error("failed to claim reminder",
			zap.Uint("reminder_id", reminderID), zap.Error(err))
		return
	}
	if !claimed {
		return
	}
	s.dispatcher.Dispatch(key.gameID, key.kind)
}

// liveTimerCount reports how many timers are armed. Test hook.
func (s *Scheduler) liveTimerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
