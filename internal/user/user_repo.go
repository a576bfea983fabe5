// user/user_repo.go
package user

import (
	"errors"

	"gorm.io/gorm"
)

// ErrProfileNotFound is returned when no profile exists for the given user ID.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository exposes the profile reads the game core depends on.
type ProfileRepository interface {
	GetProfile(userID uint) (*User, error)
}

// profileRepository implements ProfileRepository on gorm.
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// GetProfile retrieves a user profile by ID.
func (r *profileRepository) GetProfile(userID uint) (*User, error) {
	var u User
	if err := r.db.First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &u, nil
}
