// game/game_service.go
package game

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rallyhq/rally/internal/skill"
	"github.com/rallyhq/rally/internal/user"
	"github.com/rallyhq/rally/internal/venue"
)

// maxTransitionRetries bounds how often a transition is retried after a
// conditional write loses to a concurrent one.
const maxTransitionRetries = 3

// ReminderScheduler receives the lifecycle events that affect reminder
// timing. Implemented by the reminder package; the lifecycle never blocks on
// reminder work beyond registration itself.
type ReminderScheduler interface {
	Schedule(gameID uint, startTime time.Time)
	Reschedule(gameID uint, startTime time.Time)
	CancelAll(gameID uint)
}

// CancellationNotifier fans a cancellation notice out to the game's current
// members.
type CancellationNotifier interface {
	GameCancelled(gameID uint)
}

// GameService owns the game lifecycle state machine. Every transition is
// individually atomic against the store: count checks and count updates go
// through conditional writes, and a lost write retries the whole transition
// against fresh state.
type GameService struct {
	repo      GameRepository
	venues    venue.VenueRepository
	profiles  user.ProfileRepository
	scheduler ReminderScheduler
	notifier  CancellationNotifier
	logger    *zap.Logger

	now func() time.Time // injectable for tests
}

// NewGameService wires the lifecycle against its collaborators.
func NewGameService(
	repo GameRepository,
	venues venue.VenueRepository,
	profiles user.ProfileRepository,
	scheduler ReminderScheduler,
	notifier CancellationNotifier,
	logger *zap.Logger,
) *GameService {
	return &GameService{
		repo:      repo,
		venues:    venues,
		profiles:  profiles,
		scheduler: scheduler,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateGameInput carries the validated fields for a new game. Zero
// Min/MaxPlayers fall back to the widest allowed range.
type CreateGameInput struct {
	VenueID    uint
	StartTime  time.Time
	MinPlayers int
	MaxPlayers int
	SkillMin   *skill.Tier
	SkillMax   *skill.Tier
}

// ModifyGameInput is the organizer's patch; nil fields are left unchanged.
type ModifyGameInput struct {
	StartTime  *time.Time
	VenueID    *uint
	MinPlayers *int
	MaxPlayers *int
	SkillMin   *skill.Tier
	SkillMax   *skill.Tier
}

// CreateGame validates the input, creates the game with the organizer
// auto-enrolled as its first player, and registers both reminders.
func (s *GameService) CreateGame(organizerID uint, in CreateGameInput) (*Game, error) {
	now := s.now()

	if in.MinPlayers == 0 {
		in.MinPlayers = MinPlayersFloor
	}
	if in.MaxPlayers == 0 {
		in.MaxPlayers = MaxPlayersCeil
	}

	fieldErrs := make(map[string]string)
	if !in.StartTime.After(now) {
		fieldErrs["start_time"] = "must be in the future"
	}
	if in.MinPlayers < MinPlayersFloor {
		fieldErrs["min_players"] = "must be at least 2"
	}
	if in.MaxPlayers > MaxPlayersCeil {
		fieldErrs["max_players"] = "must be at most 8"
	}
	if in.MinPlayers > in.MaxPlayers {
		fieldErrs["min_players"] = "must not exceed max_players"
	}
	band := skill.Band{Min: in.SkillMin, Max: in.SkillMax}
	if err := band.Validate(); err != nil {
		fieldErrs["skill_band"] = err.Error()
	}

	v, err := s.venues.GetVenueByID(in.VenueID)
	if err != nil {
		if errors.Is(err, venue.ErrVenueNotFound) {
			fieldErrs["venue_id"] = "venue not found"
		} else {
			return nil, NewDependencyError("venue directory")
		}
	}

	if len(fieldErrs) > 0 {
		return nil, NewValidationError(fieldErrs)
	}
	if !v.Available() {
		return nil, ErrVenueUnavailable
	}

	profile, err := s.profiles.GetProfile(organizerID)
	if err != nil {
		if errors.Is(err, user.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, NewDependencyError("profile store")
	}

	g := &Game{
		OrganizerID:  organizerID,
		VenueID:      v.ID,
		VenueName:    v.Name,
		VenueAddress: v.Address,
		StartTime:    in.StartTime.UTC(),
		MinPlayers:   in.MinPlayers,
		MaxPlayers:   in.MaxPlayers,
		PlayerCount:  1,
		Status:       StatusScheduled,
		SkillMin:     in.SkillMin,
		SkillMax:     in.SkillMax,
	}
	organizer := &Participant{
		UserID:      organizerID,
		DisplayName: profile.DisplayName,
		SkillRating: profile.SkillRating,
		JoinedAt:    now,
	}

	if err := s.repo.CreateGame(g, organizer); err != nil {
		return nil, s.storeErr("create game", err)
	}

	s.logger.Info("game created",
		zap.Uint("game_id", g.ID),
		zap.Uint("organizer_id", organizerID),
		zap.Time("start_time", g.StartTime))

	s.scheduler.Schedule(g.ID, g.StartTime)
	return g, nil
}

// JoinGame enrolls a user into a game. Reaching capacity closes the game.
func (s *GameService) JoinGame(gameID, userID uint) (*Game, error) {
	profile, err := s.profiles.GetProfile(userID)
	if err != nil {
		if errors.Is(err, user.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, NewDependencyError("profile store")
	}

	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		g, err := s.repo.GetGameByID(gameID)
		if err != nil {
			return nil, s.storeErr("load game", err)
		}

		now := s.now()
		if err := s.guardMutable(g, now); err != nil {
			return nil, err
		}
		if !g.JoinWindowOpen(now) {
			return nil, ErrJoinWindowClosed
		}
		if g.Full() {
			return nil, ErrGameFull
		}
		if !skill.Eligible(profile.SkillRating, g.Band()) {
			return nil, ErrSkillIneligible
		}

		newStatus := StatusScheduled
		if g.PlayerCount+1 >= g.MaxPlayers {
			newStatus = StatusClosed
		}

		p := &Participant{
			GameID:      gameID,
			UserID:      userID,
			DisplayName: profile.DisplayName,
			SkillRating: profile.SkillRating,
			JoinedAt:    now,
		}

		err = s.repo.AddParticipant(p, g.PlayerCount, newStatus)
		switch {
		case err == nil:
			g.PlayerCount++
			g.Status = newStatus
			s.logger.Info("player joined game",
				zap.Uint("game_id", gameID),
				zap.Uint("user_id", userID),
				zap.Int("player_count", g.PlayerCount))
			return g, nil
		case errors.Is(err, errStaleGame):
			continue // lost the write, retry against fresh state
		default:
			return nil, s.storeErr("add participant", err)
		}
	}

	return nil, NewInternalError()
}

// LeaveGame removes the calling user from a game. Leaving a closed game
// reopens it.
func (s *GameService) LeaveGame(gameID, userID uint) (*Game, error) {
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		g, err := s.repo.GetGameByID(gameID)
		if err != nil {
			return nil, s.storeErr("load game", err)
		}

		now := s.now()
		if err := s.guardMutable(g, now); err != nil {
			return nil, err
		}
		if userID == g.OrganizerID {
			return nil, ErrOrganizerCannotLeave
		}
		if !g.JoinWindowOpen(now) {
			return nil, ErrJoinWindowClosed
		}

		g2, err := s.dropParticipant(g, userID)
		if errors.Is(err, errStaleGame) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info("player left game",
			zap.Uint("game_id", gameID),
			zap.Uint("user_id", userID),
			zap.Int("player_count", g2.PlayerCount))
		return g2, nil
	}

	return nil, NewInternalError()
}

// RemoveParticipant kicks a player. Only the organizer or an admin may do it,
// and never against the organizer.
func (s *GameService) RemoveParticipant(gameID, actingUserID, targetUserID uint, actingIsAdmin bool) (*Game, error) {
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		g, err := s.repo.GetGameByID(gameID)
		if err != nil {
			return nil, s.storeErr("load game", err)
		}

		if actingUserID != g.OrganizerID && !actingIsAdmin {
			return nil, ErrForbidden
		}
		if targetUserID == g.OrganizerID {
			return nil, ErrCannotRemoveOrganizer
		}

		now := s.now()
		if err := s.guardMutable(g, now); err != nil {
			return nil, err
		}
		if !g.JoinWindowOpen(now) {
			return nil, ErrJoinWindowClosed
		}

		g2, err := s.dropParticipant(g, targetUserID)
		if errors.Is(err, errStaleGame) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info("player removed from game",
			zap.Uint("game_id", gameID),
			zap.Uint("target_user_id", targetUserID),
			zap.Uint("acting_user_id", actingUserID))
		return g2, nil
	}

	return nil, NewInternalError()
}

// ModifyGame applies an organizer's patch. A changed start time re-derives
// both reminders.
func (s *GameService) ModifyGame(gameID, actingUserID uint, in ModifyGameInput) (*Game, error) {
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		g, err := s.repo.GetGameByID(gameID)
		if err != nil {
			return nil, s.storeErr("load game", err)
		}

		if actingUserID != g.OrganizerID {
			return nil, ErrForbidden
		}

		now := s.now()
		if err := s.guardMutable(g, now); err != nil {
			return nil, err
		}

		fields := make(map[string]interface{})
		fieldErrs := make(map[string]string)

		newStart := g.StartTime
		if in.StartTime != nil {
			newStart = in.StartTime.UTC()
			if !newStart.After(now) {
				fieldErrs["start_time"] = "must be in the future"
			}
			fields["start_time"] = newStart
		}

		newMin, newMax := g.MinPlayers, g.MaxPlayers
		if in.MinPlayers != nil {
			newMin = *in.MinPlayers
			fields["min_players"] = newMin
		}
		if in.MaxPlayers != nil {
			newMax = *in.MaxPlayers
			fields["max_players"] = newMax
		}
		if newMin < MinPlayersFloor {
			fieldErrs["min_players"] = "must be at least 2"
		}
		if newMax > MaxPlayersCeil {
			fieldErrs["max_players"] = "must be at most 8"
		}
		if newMin > newMax {
			fieldErrs["min_players"] = "must not exceed max_players"
		}

		newBand := g.Band()
		if in.SkillMin != nil {
			newBand.Min = in.SkillMin
			fields["skill_min"] = *in.SkillMin
		}
		if in.SkillMax != nil {
			newBand.Max = in.SkillMax
			fields["skill_max"] = *in.SkillMax
		}
		if err := newBand.Validate(); err != nil {
			fieldErrs["skill_band"] = err.Error()
		}

		if in.VenueID != nil && *in.VenueID != g.VenueID {
			v, err := s.venues.GetVenueByID(*in.VenueID)
			if err != nil {
				if errors.Is(err, venue.ErrVenueNotFound) {
					fieldErrs["venue_id"] = "venue not found"
				} else {
					return nil, NewDependencyError("venue directory")
				}
			} else if !v.Available() {
				return nil, ErrVenueUnavailable
			} else {
				fields["venue_id"] = v.ID
				fields["venue_name"] = v.Name
				fields["venue_address"] = v.Address
			}
		}

		if len(fieldErrs) > 0 {
			return nil, NewValidationError(fieldErrs)
		}
		if newMax < g.PlayerCount {
			return nil, ErrCapacityBelowOccupancy
		}

		// Capacity changes can move the game across the full boundary.
		newStatus := g.Status
		if g.Status == StatusClosed && g.PlayerCount < newMax {
			newStatus = StatusScheduled
		}
		if g.Status == StatusScheduled && g.PlayerCount >= newMax {
			newStatus = StatusClosed
		}
		if newStatus != g.Status {
			fields["status"] = newStatus
		}

		if len(fields) == 0 {
			return g, nil // nothing to change
		}

		err = s.repo.UpdateGameFields(gameID, g.PlayerCount, fields)
		if errors.Is(err, errStaleGame) {
			continue
		}
		if err != nil {
			return nil, s.storeErr("update game", err)
		}

		startChanged := in.StartTime != nil && !newStart.Equal(g.StartTime)

		updated, err := s.repo.GetGameByID(gameID)
		if err != nil {
			return nil, s.storeErr("reload game", err)
		}

		s.logger.Info("game modified",
			zap.Uint("game_id", gameID),
			zap.Bool("rescheduled", startChanged))

		if startChanged {
			s.scheduler.Reschedule(gameID, newStart)
		}
		return updated, nil
	}

	return nil, NewInternalError()
}

// CancelGame terminally cancels a game, tears down its reminders, and
// notifies the current members.
func (s *GameService) CancelGame(gameID, actingUserID uint, actingIsAdmin bool) (*Game, error) {
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		g, err := s.repo.GetGameByID(gameID)
		if err != nil {
			return nil, s.storeErr("load game", err)
		}

		if actingUserID != g.OrganizerID && !actingIsAdmin {
			return nil, ErrForbidden
		}

		switch g.EffectiveStatus(s.now()) {
		case StatusCancelled:
			return nil, ErrAlreadyCancelled
		case StatusPast:
			return nil, ErrGameEnded
		}

		err = s.repo.SetStatus(gameID, []GameStatus{StatusScheduled, StatusClosed}, StatusCancelled)
		if errors.Is(err, errStaleGame) {
			continue // status moved under us, re-evaluate
		}
		if err != nil {
			return nil, s.storeErr("cancel game", err)
		}

		g.Status = StatusCancelled
		s.logger.Info("game cancelled",
			zap.Uint("game_id", gameID),
			zap.Uint("acting_user_id", actingUserID))

		s.scheduler.CancelAll(gameID)
		s.notifier.GameCancelled(gameID)
		return g, nil
	}

	return nil, NewInternalError()
}

// GetGame returns a game by ID.
func (s *GameService) GetGame(gameID uint) (*Game, error) {
	g, err := s.repo.GetGameByID(gameID)
	if err != nil {
		return nil, s.storeErr("load game", err)
	}
	return g, nil
}

// ListGames returns games with pagination.
func (s *GameService) ListGames(status GameStatus, page, limit int) ([]Game, int64, error) {
	games, total, err := s.repo.ListGames(status, page, limit)
	if err != nil {
		return nil, 0, s.storeErr("list games", err)
	}
	return games, total, nil
}

// ListParticipants returns a game's roster in join order.
func (s *GameService) ListParticipants(gameID uint) ([]Participant, error) {
	if _, err := s.repo.GetGameByID(gameID); err != nil {
		return nil, s.storeErr("load game", err)
	}
	participants, err := s.repo.ListParticipants(gameID)
	if err != nil {
		return nil, s.storeErr("list participants", err)
	}
	return participants, nil
}

// guardMutable rejects transitions against terminal games.
func (s *GameService) guardMutable(g *Game, now time.Time) error {
	switch g.EffectiveStatus(now) {
	case StatusCancelled:
		return ErrGameCancelled
	case StatusPast:
		return ErrGameEnded
	}
	return nil
}

// dropParticipant removes a member and reopens the game when it falls back
// under capacity. Shared by leave and remove.
func (s *GameService) dropParticipant(g *Game, userID uint) (*Game, error) {
	newCount := g.PlayerCount - 1
	newStatus := g.Status
	if g.Status == StatusClosed && newCount < g.MaxPlayers {
		newStatus = StatusScheduled
	}

	err := s.repo.RemoveParticipant(g.ID, userID, g.PlayerCount, newStatus)
	if err != nil {
		if errors.Is(err, errStaleGame) || errors.Is(err, ErrNotAMember) {
			return nil, err
		}
		return nil, s.storeErr("remove participant", err)
	}

	g.PlayerCount = newCount
	g.Status = newStatus
	return g, nil
}

// storeErr passes typed domain errors through and converts anything else to
// an internal error after logging it; raw store errors never reach callers.
func (s *GameService) storeErr(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	s.logger.Error("store operation failed", zap.String("op", op), zap.Error(err))
	return NewInternalError()
}
