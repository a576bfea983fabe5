package game

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rallyhq/rally/internal/skill"
	"github.com/rallyhq/rally/internal/user"
	"github.com/rallyhq/rally/internal/venue"
)

// newTestDB opens a fresh in-memory sqlite database. The pool is capped at
// one connection so concurrent transitions serialize at the store the way
// they would on postgres row locks.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&user.User{}, &venue.Venue{}, &Game{}, &Participant{}))
	return db
}

// schedulerRecorder records lifecycle events in place of the real scheduler.
type schedulerRecorder struct {
	mu          sync.Mutex
	scheduled   []uint
	rescheduled []uint
	cancelled   []uint
}

func (r *schedulerRecorder) Schedule(gameID uint, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled = append(r.scheduled, gameID)
}

func (r *schedulerRecorder) Reschedule(gameID uint, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rescheduled = append(r.rescheduled, gameID)
}

func (r *schedulerRecorder) CancelAll(gameID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, gameID)
}

// cancelRecorder records cancellation fan-out requests.
type cancelRecorder struct {
	mu    sync.Mutex
	games []uint
}

func (r *cancelRecorder) GameCancelled(gameID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games = append(r.games, gameID)
}

type testEnv struct {
	db        *gorm.DB
	svc       *GameService
	repo      *GormGameRepository
	scheduler *schedulerRecorder
	notifier  *cancelRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	repo := NewGormGameRepository(db)
	sched := &schedulerRecorder{}
	notif := &cancelRecorder{}
	svc := NewGameService(
		repo,
		venue.NewVenueRepository(db),
		user.NewProfileRepository(db),
		sched,
		notif,
		zap.NewNop(),
	)
	return &testEnv{db: db, svc: svc, repo: repo, scheduler: sched, notifier: notif}
}

func (e *testEnv) createUser(t *testing.T, rating *skill.Tier) uint {
	t.Helper()
	u := &user.User{
		DisplayName:     "player-" + uuid.NewString()[:8],
		Email:           uuid.NewString() + "@example.com",
		SkillRating:     rating,
		NotifyReminders: true,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u.ID
}

func (e *testEnv) createAdmin(t *testing.T) uint {
	t.Helper()
	u := &user.User{
		DisplayName: "admin-" + uuid.NewString()[:8],
		Email:       uuid.NewString() + "@example.com",
		Admin:       true,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u.ID
}

func (e *testEnv) createVenue(t *testing.T, approved, active bool) uint {
	t.Helper()
	v := &venue.Venue{
		Name:     "court-" + uuid.NewString()[:8],
		Address:  "1 Test Street",
		Approved: approved,
	}
	require.NoError(t, e.db.Create(v).Error)
	if !active {
		// The column defaults to true; a zero-value bool is dropped on create.
		require.NoError(t, e.db.Model(v).Update("active", false).Error)
	}
	return v.ID
}

// createGame spins up a game through the service with sensible defaults.
func (e *testEnv) createGame(t *testing.T, organizerID uint, in CreateGameInput) *Game {
	t.Helper()
	if in.VenueID == 0 {
		in.VenueID = e.createVenue(t, true, true)
	}
	if in.StartTime.IsZero() {
		in.StartTime = time.Now().Add(48 * time.Hour)
	}
	g, err := e.svc.CreateGame(organizerID, in)
	require.NoError(t, err)
	return g
}

// requireCountConsistent asserts the stored player count matches the live
// ledger size.
func (e *testEnv) requireCountConsistent(t *testing.T, gameID uint) {
	t.Helper()
	g, err := e.repo.GetGameByID(gameID)
	require.NoError(t, err)
	participants, err := e.repo.ListParticipants(gameID)
	require.NoError(t, err)
	require.Equal(t, g.PlayerCount, len(participants))
	require.Positive(t, g.PlayerCount)
	require.LessOrEqual(t, g.PlayerCount, g.MaxPlayers)
}

func tierPtr(tier skill.Tier) *skill.Tier { return &tier }
