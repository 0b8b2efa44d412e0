package models

import "time"

// ActivityLog records who changed what, for audit on the floor dashboard.
type ActivityLog struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	RestaurantID string `gorm:"type:varchar(36);not null;index" json:"restaurant_id"`
	UserID       string `gorm:"type:varchar(36)" json:"user_id"`
	Action       string `gorm:"type:varchar(50);not null" json:"action"`
	EntityType   string `gorm:"type:varchar(20);not null" json:"entity_type"`
	EntityID     string `gorm:"type:varchar(36)" json:"entity_id"`
	Detail       string `gorm:"type:text" json:"detail"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
