package game

import (
	"time"

	"gorm.io/gorm"

	"github.com/rallyhq/rally/internal/skill"
)

type GameStatus string

const (
	StatusScheduled GameStatus = "scheduled"
	StatusClosed    GameStatus = "closed"
	StatusCancelled GameStatus = "cancelled"

	// StatusPast is a read-time projection, never written to the store. A
	// scheduled or closed game whose start time is more than PastGrace behind
	// us reads as past; see Game.EffectiveStatus.
	StatusPast GameStatus = "past"
)

const (
	// MinPlayersFloor and MaxPlayersCeil bound the capacity range a game may
	// be configured with.
	MinPlayersFloor = 2
	MaxPlayersCeil  = 8

	// JoinCutoff closes the join window this long before start. Join, leave
	// and remove all share the one cutoff.
	JoinCutoff = time.Hour

	// PastGrace is how long after start a game still accepts cancel. Once it
	// elapses the game reads as past and every transition fails.
	PastGrace = 2 * time.Hour
)

// Game is one scheduled pickup game at a venue.
type Game struct {
	gorm.Model
	OrganizerID uint `gorm:"index;not null" json:"organizer_id"`

	VenueID uint `gorm:"index;not null" json:"venue_id"`
	// Venue display fields are denormalized at creation so reminder messages
	// and listings don't need a directory lookup.
	VenueName    string `json:"venue_name"`
	VenueAddress string `json:"venue_address"`

	StartTime time.Time `gorm:"index;not null" json:"start_time"`

	MinPlayers  int `gorm:"not null" json:"min_players"`
	MaxPlayers  int `gorm:"not null" json:"max_players"`
	PlayerCount int `gorm:"not null;default:0" json:"player_count"`

	Status GameStatus `gorm:"type:VARCHAR(20);index;not null;default:'scheduled'" json:"status"`

	SkillMin *skill.Tier `json:"skill_min,omitempty"`
	SkillMax *skill.Tier `json:"skill_max,omitempty"`
}

// Participant is one user's membership in one game. Rows are hard-deleted on
// leave/remove: the (game_id, user_id) unique index is what makes double-join
// structurally impossible, so it must free up when someone leaves.
type Participant struct {
	ID          uint        `gorm:"primarykey" json:"id"`
	GameID      uint        `gorm:"not null;uniqueIndex:idx_game_user" json:"game_id"`
	UserID      uint        `gorm:"not null;uniqueIndex:idx_game_user" json:"user_id"`
	DisplayName string      `gorm:"not null" json:"display_name"`
	SkillRating *skill.Tier `json:"skill_rating,omitempty"`
	JoinedAt    time.Time   `gorm:"not null;index" json:"joined_at"`
}

// Band returns the game's skill band.
func (g *Game) Band() skill.Band {
	return skill.Band{Min: g.SkillMin, Max: g.SkillMax}
}

// Full reports whether the game is at capacity.
func (g *Game) Full() bool {
	return g.PlayerCount >= g.MaxPlayers
}

// JoinWindowOpen reports whether membership changes are still allowed.
func (g *Game) JoinWindowOpen(now time.Time) bool {
	return now.Before(g.StartTime.Add(-JoinCutoff))
}

// EffectiveStatus derives the externally visible status at the given instant.
// Cancelled is terminal; otherwise a game whose start time is more than
// PastGrace ago reads as past. This is the single place the past rule lives.
func (g *Game) EffectiveStatus(now time.Time) GameStatus {
	if g.Status == StatusCancelled {
		return StatusCancelled
	}
	if now.After(g.StartTime.Add(PastGrace)) {
		return StatusPast
	}
	return g.Status
}
