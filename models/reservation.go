package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reservation statuses.
const (
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusSeated    = "seated"
	ReservationStatusCompleted = "completed"
	ReservationStatusCancelled = "cancelled"
	ReservationStatusNoShow    = "no_show"
)

type Reservation struct {
	ID           string `gorm:"type:varchar(36);primaryKey" json:"id"`
	RestaurantID string `gorm:"type:varchar(36);not null;index" json:"restaurant_id"`
	GuestID      string `gorm:"type:varchar(36);not null;index" json:"guest_id"`
	Guest        Guest  `gorm:"foreignKey:GuestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`

	PartySize       int       `gorm:"not null;default:1" json:"party_size"`
	ReservationTime time.Time `gorm:"not null;index" json:"reservation_time"`
	Status          string    `gorm:"type:varchar(20);not null;default:'confirmed';index" json:"status"`
	Notes           string    `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Active reports whether the reservation still blocks guest deletion.
func (r *Reservation) Active() bool {
	return r.Status == ReservationStatusConfirmed || r.Status == ReservationStatusSeated
}
