package reminder

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Kind identifies which of the two reminders a row is.
type Kind string

const (
	KindT24h Kind = "t24h"
	KindT1h  Kind = "t1h"
)

// Kinds lists every reminder kind a game carries.
var Kinds = []Kind{KindT24h, KindT1h}

// Offset returns how long before the game's start time this kind fires.
func (k Kind) Offset() time.Duration {
	if k == KindT24h {
		return 24 * time.Hour
	}
	return time.Hour
}

// Label is the human wording used in message subjects.
func (k Kind) Label() string {
	if k == KindT24h {
		return "24 hours"
	}
	return "1 hour"
}

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
)

// Reminder is one scheduled one-shot notification for a game. The
// (game_id, kind) unique index guarantees at most one row per key; replacing
// a reminder deletes the old row first, in the same transaction. No soft
// delete for the same reason participants have none: the index must free up.
type Reminder struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	GameID    uint      `gorm:"not null;uniqueIndex:idx_reminder_game_kind" json:"game_id"`
	Kind      Kind      `gorm:"type:VARCHAR(8);not null;uniqueIndex:idx_reminder_game_kind" json:"kind"`
	FireAt    time.Time `gorm:"not null;index" json:"fire_at"`
	Status    Status    `gorm:"type:VARCHAR(12);not null;default:'pending'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReminderRepository persists reminder rows. The conditional status update in
// MarkSent is the serialization point between a firing timer and a teardown
// racing it.
type ReminderRepository interface {
	Replace(rem *Reminder) error
	DeleteForGame(gameID uint) error
	MarkSent(id uint) (bool, error)
	MarkSkipped(id uint) error
	ListPending() ([]Reminder, error)
	ListForGame(gameID uint) ([]Reminder, error)
}

// GormReminderRepository implements ReminderRepository on gorm.
type GormReminderRepository struct {
	db *gorm.DB
}

// NewGormReminderRepository creates a new reminder repository.
func NewGormReminderRepository(db *gorm.DB) *GormReminderRepository {
	return &GormReminderRepository{db: db}
}

// Replace removes any existing row for the same (game, kind) and inserts the
// new one, atomically. Last writer wins.
func (r *GormReminderRepository) Replace(rem *Reminder) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ? AND kind = ?", rem.GameID, rem.Kind).
			Delete(&Reminder{}).Error; err != nil {
			return err
		}
		return tx.Create(rem).Error
	})
}

// DeleteForGame removes every reminder row for a game. Idempotent.
func (r *GormReminderRepository) DeleteForGame(gameID uint) error {
	return r.db.Where("game_id = ?", gameID).Delete(&Reminder{}).Error
}

// MarkSent claims a pending reminder for dispatch. Returns false when the row
// was already sent, replaced or torn down, in which case the caller must not
// dispatch.
func (r *GormReminderRepository) MarkSent(id uint) (bool, error) {
	res := r.db.Model(&Reminder{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Update("status", StatusSent)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkSkipped records that a pending reminder was too stale to be useful.
func (r *GormReminderRepository) MarkSkipped(id uint) error {
	res := r.db.Model(&Reminder{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Update("status", StatusSkipped)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("reminder no longer pending")
	}
	return nil
}

// ListPending returns every pending reminder, oldest fire time first. Used to
// re-arm timers after a restart.
func (r *GormReminderRepository) ListPending() ([]Reminder, error) {
	var rems []Reminder
	if err := r.db.Where("status = ?", StatusPending).
		Order("fire_at asc").
		Find(&rems).Error; err != nil {
		return nil, err
	}
	return rems, nil
}

// ListForGame returns a game's reminder rows, by kind offset order.
func (r *GormReminderRepository) ListForGame(gameID uint) ([]Reminder, error) {
	var rems []Reminder
	if err := r.db.Where("game_id = ?", gameID).
		Order("fire_at asc").
		Find(&rems).Error; err != nil {
		return nil, err
	}
	return rems, nil
}
