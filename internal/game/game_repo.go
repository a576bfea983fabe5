// game/game_repo.go
package game

import (
	"errors"

	"gorm.io/gorm"
)

// errStaleGame signals that a conditional write found the game changed since
// it was read. The service retries the whole transition against fresh state.
var errStaleGame = errors.New("game record changed since read")

// GameRepository defines the store operations the lifecycle needs. Count
// mutations are conditional on the last-read player count so two racing
// transitions can never both apply (see the service retry loop).
type GameRepository interface {
	CreateGame(game *Game, organizer *Participant) error
	GetGameByID(id uint) (*Game, error)
	ListGames(status GameStatus, page, limit int) ([]Game, int64, error)

	ListParticipants(gameID uint) ([]Participant, error)
	AddParticipant(p *Participant, prevCount int, newStatus GameStatus) error
	RemoveParticipant(gameID, userID uint, prevCount int, newStatus GameStatus) error

	UpdateGameFields(gameID uint, prevCount int, fields map[string]interface{}) error
	SetStatus(gameID uint, from []GameStatus, to GameStatus) error
}

// GormGameRepository implements GameRepository on gorm.
type GormGameRepository struct {
	db *gorm.DB
}

// NewGormGameRepository creates a new game repository.
func NewGormGameRepository(db *gorm.DB) *GormGameRepository {
	return &GormGameRepository{db: db}
}

// CreateGame persists a new game together with its organizer's participant
// row in one transaction.
func (r *GormGameRepository) CreateGame(game *Game, organizer *Participant) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(game).Error; err != nil {
			return err
		}
		organizer.GameID = game.ID
		return tx.Create(organizer).Error
	})
}

// GetGameByID retrieves a game by its ID.
func (r *GormGameRepository) GetGameByID(id uint) (*Game, error) {
	var game Game
	if err := r.db.First(&game, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return &game, nil
}

// ListGames retrieves games with pagination, optionally filtered by stored
// status.
func (r *GormGameRepository) ListGames(status GameStatus, page, limit int) ([]Game, int64, error) {
	var games []Game
	var totalCount int64

	offset := (page - 1) * limit

	query := r.db.Model(&Game{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("start_time asc").Offset(offset).Limit(limit).Find(&games).Error; err != nil {
		return nil, 0, err
	}

	return games, totalCount, nil
}

// ListParticipants returns the full roster for a game in deterministic order:
// joined_at ascending, user_id breaking ties.
func (r *GormGameRepository) ListParticipants(gameID uint) ([]Participant, error) {
	var participants []Participant
	if err := r.db.Where("game_id = ?", gameID).
		Order("joined_at asc, user_id asc").
		Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

// AddParticipant inserts a participant row and bumps the game's player count
// in one transaction. The insert relies on the (game_id, user_id) unique
// index to reject double-joins; the count update only applies if the count
// still matches prevCount and the game is not terminal.
func (r *GormGameRepository) AddParticipant(p *Participant, prevCount int, newStatus GameStatus) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyMember
			}
			return err
		}

		res := tx.Model(&Game{}).
			Where("id = ? AND player_count = ? AND status IN ?",
				p.GameID, prevCount, []GameStatus{StatusScheduled, StatusClosed}).
			Updates(map[string]interface{}{
				"player_count": prevCount + 1,
				"status":       newStatus,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errStaleGame // rolls back the insert
		}
		return nil
	})
}

// RemoveParticipant deletes a participant row and decrements the game's
// player count in one transaction, with the same conditional-write contract
// as AddParticipant.
func (r *GormGameRepository) RemoveParticipant(gameID, userID uint, prevCount int, newStatus GameStatus) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("game_id = ? AND user_id = ?", gameID, userID).Delete(&Participant{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotAMember
		}

		res = tx.Model(&Game{}).
			Where("id = ? AND player_count = ? AND status IN ?",
				gameID, prevCount, []GameStatus{StatusScheduled, StatusClosed}).
			Updates(map[string]interface{}{
				"player_count": prevCount - 1,
				"status":       newStatus,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errStaleGame
		}
		return nil
	})
}

// UpdateGameFields applies a modify patch conditional on the player count the
// caller validated against, so a concurrent join can't slip past a capacity
// shrink check.
func (r *GormGameRepository) UpdateGameFields(gameID uint, prevCount int, fields map[string]interface{}) error {
	res := r.db.Model(&Game{}).
		Where("id = ? AND player_count = ? AND status IN ?",
			gameID, prevCount, []GameStatus{StatusScheduled, StatusClosed}).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errStaleGame
	}
	return nil
}

// SetStatus moves a game's stored status, but only from one of the expected
// source states.
func (r *GormGameRepository) SetStatus(gameID uint, from []GameStatus, to GameStatus) error {
	res := r.db.Model(&Game{}).
		Where("id = ? AND status IN ?", gameID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errStaleGame
	}
	return nil
}
