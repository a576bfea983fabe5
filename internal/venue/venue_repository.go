// venue/repository.go
package venue

import (
	"errors"

	"gorm.io/gorm"
)

// ErrVenueNotFound is returned when a venue ID does not resolve to a row.
var ErrVenueNotFound = errors.New("venue not found")

// VenueRepository defines all database operations for the venue directory.
type VenueRepository interface {
	CreateVenue(venue *Venue) error
	GetVenueByID(id uint) (*Venue, error)
	GetAllVenues(page, limit int, approvedOnly bool) ([]Venue, int64, error)
	UpdateVenue(venue *Venue) error
	SetApproval(id uint, approved bool) error
	SetActive(id uint, active bool) error
}

// venueRepository implements VenueRepository on gorm.
type venueRepository struct {
	db *gorm.DB
}

// NewVenueRepository creates a new venue repository.
func NewVenueRepository(db *gorm.DB) VenueRepository {
	return &venueRepository{db: db}
}

// CreateVenue adds a new venue to the database.
func (r *venueRepository) CreateVenue(venue *Venue) error {
	return r.db.Create(venue).Error
}

// GetVenueByID retrieves a venue by its ID.
func (r *venueRepository) GetVenueByID(id uint) (*Venue, error) {
	var venue Venue
	if err := r.db.First(&venue, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVenueNotFound
		}
		return nil, err
	}
	return &venue, nil
}

// GetAllVenues retrieves venues with pagination, optionally restricted to
// approved ones.
func (r *venueRepository) GetAllVenues(page, limit int, approvedOnly bool) ([]Venue, int64, error) {
	var venues []Venue
	var totalCount int64

	offset := (page - 1) * limit

	query := r.db.Model(&Venue{})
	if approvedOnly {
		query = query.Where("approved = ?", true)
	}

	if err := query.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("name asc").Offset(offset).Limit(limit).Find(&venues).Error; err != nil {
		return nil, 0, err
	}

	return venues, totalCount, nil
}

// UpdateVenue updates venue information.
func (r *venueRepository) UpdateVenue(venue *Venue) error {
	return r.db.Save(venue).Error
}

// SetApproval flips the admin approval flag on a venue.
func (r *venueRepository) SetApproval(id uint, approved bool) error {
	res := r.db.Model(&Venue{}).Where("id = ?", id).Update("approved", approved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVenueNotFound
	}
	return nil
}

// SetActive marks a venue as open or closed for new games.
func (r *venueRepository) SetActive(id uint, active bool) error {
	res := r.db.Model(&Venue{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVenueNotFound
	}
	return nil
}
