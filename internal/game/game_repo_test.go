package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func seedGame(t *testing.T, env *testEnv, playerCount int, status GameStatus) *Game {
	t.Helper()
	g := &Game{
		OrganizerID: 1,
		VenueID:     1,
		VenueName:   "Test Court",
		StartTime:   time.Now().Add(48 * time.Hour).UTC(),
		MinPlayers:  2,
		MaxPlayers:  4,
		PlayerCount: playerCount,
		Status:      status,
	}
	require.NoError(t, env.db.Create(g).Error)
	return g
}

func Test_AddParticipant_StaleCountRollsBack(t *testing.T) {
	env := newTestEnv(t)
	g := seedGame(t, env, 2, StatusScheduled)

	// prevCount no longer matches the stored count, so the conditional update
	// misses and the participant insert must roll back with it.
	err := env.repo.AddParticipant(&Participant{
		GameID: g.ID, UserID: 7, DisplayName: "p", JoinedAt: time.Now(),
	}, 1, StatusScheduled)
	require.ErrorIs(t, err, errStaleGame)

	roster, err := env.repo.ListParticipants(g.ID)
	require.NoError(t, err)
	require.Empty(t, roster)

	stored, err := env.repo.GetGameByID(g.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.PlayerCount)
}

func Test_AddParticipant_DuplicateUser(t *testing.T) {
	env := newTestEnv(t)
	g := seedGame(t, env, 0, StatusScheduled)

	p := &Participant{GameID: g.ID, UserID: 7, DisplayName: "p", JoinedAt: time.Now()}
	require.NoError(t, env.repo.AddParticipant(p, 0, StatusScheduled))

	err := env.repo.AddParticipant(&Participant{
		GameID: g.ID, UserID: 7, DisplayName: "p", JoinedAt: time.Now(),
	}, 1, StatusScheduled)
	require.ErrorIs(t, err, ErrAlreadyMember)
}

func Test_AddParticipant_TerminalGameRejected(t *testing.T) {
	env := newTestEnv(t)
	g := seedGame(t, env, 1, StatusCancelled)

	err := env.repo.AddParticipant(&Participant{
		GameID: g.ID, UserID: 7, DisplayName: "p", JoinedAt: time.Now(),
	}, 1, StatusScheduled)
	require.ErrorIs(t, err, errStaleGame)
}

func Test_RemoveParticipant_NotAMember(t *testing.T) {
	env := newTestEnv(t)
	g := seedGame(t, env, 1, StatusScheduled)

	err := env.repo.RemoveParticipant(g.ID, 99, 1, StatusScheduled)
	require.ErrorIs(t, err, ErrNotAMember)
}

func Test_ListParticipants_DeterministicOrder(t *testing.T) {
	env := newTestEnv(t)
	g := seedGame(t, env, 0, StatusScheduled)

	base := time.Now().UTC().Truncate(time.Second)
	rows := []Participant{
		{GameID: g.ID, UserID: 30, DisplayName: "late", JoinedAt: base.Add(2 * time.Minute)},
		{GameID: g.ID, UserID: 20, DisplayName: "tie-high", JoinedAt: base},
		{GameID: g.ID, UserID: 10, DisplayName: "tie-low", JoinedAt: base},
	}
	for i := range rows {
		require.NoError(t, env.db.Create(&rows[i]).Error)
	}

	roster, err := env.repo.ListParticipants(g.ID)
	require.NoError(t, err)
	require.Len(t, roster, 3)
	// joined_at ascending, user_id breaking the tie.
	require.Equal(t, uint(10), roster[0].UserID)
	require.Equal(t, uint(20), roster[1].UserID)
	require.Equal(t, uint(30), roster[2].UserID)
}

func Test_UpdateGameFields_ConditionalOnCount(t *testing.T) {
	env := newTestEnv(t)
	g := seedGame(t, env, 2, StatusScheduled)

	err := env.repo.UpdateGameFields(g.ID, 1, map[string]interface{}{"max_players": 6})
	require.ErrorIs(t, err, errStaleGame)

	require.NoError(t, env.repo.UpdateGameFields(g.ID, 2, map[string]interface{}{"max_players": 6}))
	stored, err := env.repo.GetGameByID(g.ID)
	require.NoError(t, err)
	require.Equal(t, 6, stored.MaxPlayers)
}

func Test_SetStatus_SourceStateGuard(t *testing.T) {
	env := newTestEnv(t)
	g := seedGame(t, env, 1, StatusScheduled)

	require.NoError(t, env.repo.SetStatus(g.ID, []GameStatus{StatusScheduled, StatusClosed}, StatusCancelled))

	// Already cancelled: the guarded update misses.
	err := env.repo.SetStatus(g.ID, []GameStatus{StatusScheduled, StatusClosed}, StatusCancelled)
	require.ErrorIs(t, err, errStaleGame)
}

func Test_GetGameByID_NotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.repo.GetGameByID(424242)
	require.ErrorIs(t, err, ErrGameNotFound)
}
