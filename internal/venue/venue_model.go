package venue

import (
	"gorm.io/gorm"
)

// Venue is an entry in the venue directory. Games can only be created at
// venues that are both approved (vetted by an admin) and active (not
// temporarily shut, e.g. for maintenance).
type Venue struct {
	gorm.Model
	Name        string `gorm:"not null;unique" json:"name"`
	Address     string `gorm:"not null" json:"address"`
	Description string `json:"description,omitempty"`
	CreatedByID uint   `gorm:"index" json:"created_by_id"`
	Approved    bool   `gorm:"default:false;index" json:"approved"`
	Active      bool   `gorm:"default:true" json:"active"`
}

// Available reports whether games may be scheduled at the venue.
func (v *Venue) Available() bool {
	return v.Approved && v.Active
}
