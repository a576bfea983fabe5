package user

import (
	"gorm.io/gorm"

	"github.com/rallyhq/rally/internal/skill"
)

// User is a player profile. Identity and credential management live outside
// this service; rows here are read when enrolling players and when composing
// reminder messages.
type User struct {
	gorm.Model
	DisplayName string      `gorm:"not null" json:"display_name"`
	Email       string      `gorm:"uniqueIndex;not null" json:"email"`
	SkillRating *skill.Tier `json:"skill_rating,omitempty"`
	Admin       bool        `gorm:"default:false" json:"-"`

	// NotifyReminders gates game-reminder delivery for this user.
	NotifyReminders bool `gorm:"default:true" json:"notify_reminders"`
}
