package reminder

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rallyhq/rally/internal/game"
	"github.com/rallyhq/rally/internal/user"
)

type sentMessage struct {
	to      string
	subject string
	body    string
}

// notifierRecorder records sends and can be told to fail for given addresses.
type notifierRecorder struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]bool
}

func (n *notifierRecorder) Send(to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[to] {
		return errors.New("smtp unavailable")
	}
	n.sent = append(n.sent, sentMessage{to: to, subject: subject, body: body})
	return nil
}

func (n *notifierRecorder) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.sent {
		out = append(out, m.to)
	}
	return out
}

type dispatcherEnv struct {
	db         *gorm.DB
	dispatcher *MessageDispatcher
	notifier   *notifierRecorder
}

func newDispatcherEnv(t *testing.T) *dispatcherEnv {
	t.Helper()
	db := newTestDB(t)
	notifier := &notifierRecorder{failFor: make(map[string]bool)}
	d := NewMessageDispatcher(
		game.NewGormGameRepository(db),
		user.NewProfileRepository(db),
		notifier,
		zap.NewNop(),
	)
	return &dispatcherEnv{db: db, dispatcher: d, notifier: notifier}
}

func (e *dispatcherEnv) addMember(t *testing.T, g *game.Game, notify bool) *user.User {
	t.Helper()
	u := &user.User{
		DisplayName: "player-" + uuid.NewString()[:8],
		Email:       uuid.NewString() + "@example.com",
	}
	require.NoError(t, e.db.Create(u).Error)
	if !notify {
		// The column defaults to true; a zero-value bool is dropped on create.
		require.NoError(t, e.db.Model(u).Update("notify_reminders", false).Error)
		u.NotifyReminders = false
	}
	require.NoError(t, e.db.Create(&game.Participant{
		GameID:      g.ID,
		UserID:      u.ID,
		DisplayName: u.DisplayName,
		JoinedAt:    time.Now(),
	}).Error)
	return u
}

func (e *dispatcherEnv) seedGame(t *testing.T, status game.GameStatus, start time.Time) *game.Game {
	t.Helper()
	g := &game.Game{
		OrganizerID:  1,
		VenueID:      1,
		VenueName:    "Riverside Court",
		VenueAddress: "12 River Road",
		StartTime:    start.UTC(),
		MinPlayers:   2,
		MaxPlayers:   4,
		PlayerCount:  0,
		Status:       status,
	}
	require.NoError(t, e.db.Create(g).Error)
	return g
}

func Test_Dispatch_SendsToRoster(t *testing.T) {
	env := newDispatcherEnv(t)
	g := env.seedGame(t, game.StatusScheduled, time.Now().Add(time.Hour))
	a := env.addMember(t, g, true)
	b := env.addMember(t, g, true)

	env.dispatcher.Dispatch(g.ID, KindT1h)

	require.ElementsMatch(t, []string{a.Email, b.Email}, env.notifier.recipients())
	require.Contains(t, env.notifier.sent[0].subject, "1 hour")
	require.Contains(t, env.notifier.sent[0].body, "Riverside Court")
}

func Test_Dispatch_HonorsOptOut(t *testing.T) {
	env := newDispatcherEnv(t)
	g := env.seedGame(t, game.StatusScheduled, time.Now().Add(time.Hour))
	in := env.addMember(t, g, true)
	env.addMember(t, g, false)

	env.dispatcher.Dispatch(g.ID, KindT1h)

	require.Equal(t, []string{in.Email}, env.notifier.recipients())
}

// A reminder that fires after the game was cancelled, or after it slipped
// past, is dropped without sending anything.
func Test_Dispatch_TerminalGameAborts(t *testing.T) {
	env := newDispatcherEnv(t)

	cancelled := env.seedGame(t, game.StatusCancelled, time.Now().Add(time.Hour))
	env.addMember(t, cancelled, true)
	env.dispatcher.Dispatch(cancelled.ID, KindT1h)
	require.Empty(t, env.notifier.sent)

	past := env.seedGame(t, game.StatusScheduled, time.Now().Add(-game.PastGrace-time.Hour))
	env.addMember(t, past, true)
	env.dispatcher.Dispatch(past.ID, KindT24h)
	require.Empty(t, env.notifier.sent)
}

func Test_Dispatch_UnknownGameIsHarmless(t *testing.T) {
	env := newDispatcherEnv(t)
	env.dispatcher.Dispatch(424242, KindT1h)
	require.Empty(t, env.notifier.sent)
}

// One participant's failed send never blocks the rest of the roster.
func Test_Dispatch_FailedSendContinues(t *testing.T) {
	env := newDispatcherEnv(t)
	g := env.seedGame(t, game.StatusScheduled, time.Now().Add(time.Hour))
	broken := env.addMember(t, g, true)
	ok := env.addMember(t, g, true)
	env.notifier.failFor[broken.Email] = true

	env.dispatcher.Dispatch(g.ID, KindT1h)

	require.Equal(t, []string{ok.Email}, env.notifier.recipients())
}

// Cancellation notices ignore the reminder opt-out.
func Test_GameCancelled_IgnoresOptOut(t *testing.T) {
	env := newDispatcherEnv(t)
	g := env.seedGame(t, game.StatusCancelled, time.Now().Add(time.Hour))
	a := env.addMember(t, g, true)
	b := env.addMember(t, g, false)

	env.dispatcher.GameCancelled(g.ID)

	require.ElementsMatch(t, []string{a.Email, b.Email}, env.notifier.recipients())
	require.Contains(t, env.notifier.sent[0].subject, "Cancelled")
}
