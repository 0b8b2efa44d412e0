package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Table statuses mirror the client enum exactly.
const (
	TableStatusAvailable    = "available"
	TableStatusOccupied     = "occupied"
	TableStatusReserved     = "reserved"
	TableStatusOutOfService = "outOfService"
)

func ValidTableStatus(status string) bool {
	switch status {
	case TableStatusAvailable, TableStatusOccupied, TableStatusReserved, TableStatusOutOfService:
		return true
	}
	return false
}

type Table struct {
	ID           string `gorm:"type:varchar(36);primaryKey" json:"id"`
	RestaurantID string `gorm:"type:varchar(36);not null;index:idx_restaurant_number,unique" json:"restaurant_id"`

	TableNumber string `gorm:"type:varchar(20);not null;index:idx_restaurant_number,unique" json:"table_number"`
	Capacity    int    `gorm:"not null" json:"capacity"`

	MinPartySize int `gorm:"default:1" json:"min_party_size"`
	MaxPartySize int `json:"max_party_size"`

	// Floor plan position, normalized 0.0-1.0.
	PositionX float64 `gorm:"not null" json:"position_x"`
	PositionY float64 `gorm:"not null" json:"position_y"`
	Shape     string  `gorm:"type:varchar(20);default:'round'" json:"shape"`
	Section   string  `gorm:"type:varchar(100)" json:"section"`

	Status         string  `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	CurrentGuestID *string `gorm:"type:varchar(36);index" json:"current_guest_id"`

	Notes    string `gorm:"type:text" json:"notes"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (t *Table) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Occupied reports whether the table currently holds a guest reference.
func (t *Table) Occupied() bool {
	return t.Status == TableStatusOccupied && t.CurrentGuestID != nil
}
