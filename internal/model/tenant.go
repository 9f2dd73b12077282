package model

import (
	"time"
)

// Tenant is a rental record. A signed-in identity is linked to at most one
// active tenant through its email address.
type Tenant struct {
	ID         string     `db:"id" json:"id"`
	Email      string     `db:"email" json:"email"`
	FirstName  string     `db:"first_name" json:"firstName"`
	LastName   string     `db:"last_name" json:"lastName"`
	Phone      *string    `db:"phone" json:"phone,omitempty"`
	PropertyID *string    `db:"property_id" json:"propertyId,omitempty"`
	RoomNumber *string    `db:"room_number" json:"roomNumber,omitempty"`
	LeaseStart *time.Time `db:"lease_start" json:"leaseStart,omitempty"`
	LeaseEnd   *time.Time `db:"lease_end" json:"leaseEnd,omitempty"`
	IsActive   bool       `db:"is_active" json:"isActive"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`

	// Joined from properties so the fallback content key is known even when
	// the property listing cannot be loaded.
	PropertyName *string `db:"property_name" json:"-"`
	PropertySlug *string `db:"property_slug" json:"-"`
}

func (t *Tenant) FullName() string {
	if t.LastName == "" {
		return t.FirstName
	}
	return t.FirstName + " " + t.LastName
}
