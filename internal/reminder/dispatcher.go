// reminder/dispatcher.go
package reminder

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rallyhq/rally/internal/game"
	"github.com/rallyhq/rally/internal/notification"
	"github.com/rallyhq/rally/internal/user"
)

// GameReader is the read-only slice of the game store the dispatcher needs.
// Satisfied by game.GameRepository.
type GameReader interface {
	GetGameByID(id uint) (*game.Game, error)
	ListParticipants(gameID uint) ([]game.Participant, error)
}

// MessageDispatcher reads fresh game and roster state at fire time and fans
// / one message out per eligible participant. Fan-out is best effort: a failed
// send is logged and the loop moves on, no retry queue.
type MessageDispatcher struct {
	games    GameReader
	profiles user.ProfileRepository
	notifier notification.Notifier
	logger   *zap.Logger

	now func() time.Time // injectable for tests
}

// NewMessageDispatcher wires the dispatcher against its collaborators.
func NewMessageDispatcher(games GameReader, profiles user.ProfileRepository, notifier notification.Notifier, logger *zap.Logger) *MessageDispatcher {
	return &MessageDispatcher{
		games:    games,
		profiles: profiles,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Dispatch sends the reminder of the given kind for a game. A game that was
// cancelled (or slipped past) between scheduling and firing aborts silently;
// this is the backstop that makes a stale fire harmless.
func (d *MessageDispatcher) Dispatch(gameID uint, kind Kind) {
	g, err := d.games.GetGameByID(gameID)
	if err != nil {
		d.logger.Warn("reminder fired for unavailable game",
			zap.Uint("game_id", gameID), zap.Error(err))
		return
	}

	switch g.EffectiveStatus(d.now()) {
	case game.StatusCancelled, game.StatusPast:
		d.logger.Debug("dropping reminder for terminal game",
			zap.Uint("game_id", gameID), zap.String("kind", string(kind)))
		return
	}

	subject := fmt.Sprintf("Reminder: your game at %s starts in %s", g.VenueName, kind.Label())
	body := fmt.Sprintf(
		"Your pickup game at %s (%s) starts at %s. %d of %d spots are filled.",
		g.VenueName, g.VenueAddress,
		g.StartTime.UTC().Format("Mon, 02 Jan 2006 15:04 MST"),
		g.PlayerCount, g.MaxPlayers,
	)

	d.fanOut(g, subject, body, true)
}

// GameCancelled notifies every current member that the game was called off.
// Cancellation notices ignore the reminder opt-out: members need to know not
// to show up.
func (d *MessageDispatcher) GameCancelled(gameID uint) {
	g, err := d.games.GetGameByID(gameID)
	if err != nil {
		d.logger.Warn("cancellation notice for unavailable game",
			zap.Uint("game_id", gameID), zap.Error(err))
		return
	}

	subject := fmt.Sprintf("Cancelled: game at %s", g.VenueName)
	body := fmt.Sprintf(
		"The pickup game at %s (%s) scheduled for %s has been cancelled by the organizer.",
		g.VenueName, g.VenueAddress,
		g.StartTime.UTC().Format("Mon, 02 Jan 2006 15:04 MST"),
	)

	d.fanOut(g, subject, body, false)
}

func (d *MessageDispatcher) fanOut(g *game.Game, subject, body string, honorPrefs bool) {
	participants, err := d.games.ListParticipants(g.ID)
	if err != nil {
		d.logger.Error("failed to load roster for notification",
			zap.Uint("game_id", g.ID), zap.Error(err))
		return
	}

	sent := 0
	for _, p := range participants {
		profile, err := d.profiles.GetProfile(p.UserID)
		if err != nil {
			d.logger.Warn("skipping participant without profile",
				zap.Uint("game_id", g.ID), zap.Uint("user_id", p.UserID), zap.Error(err))
			continue
		}
		if honorPrefs && !profile.NotifyReminders {
			continue
		}

		if err := d.notifier.Send(profile.Email, subject, body); err != nil {
			d.logger.Warn("failed to send notification",
				zap.Uint("game_id", g.ID), zap.Uint("user_id", p.UserID), zap.Error(err))
			continue
		}
		sent++
	}

	d.logger.Info("notification fan-out complete",
		zap.Uint("game_id", g.ID),
		zap.Int("sent", sent),
		zap.Int("roster", len(participants)))
}
