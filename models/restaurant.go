package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Restaurant struct {
	ID       string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name     string `gorm:"type:varchar(255);not null" json:"name"`
	Timezone string `gorm:"type:varchar(64);default:'UTC'" json:"timezone"`
	Address  string `gorm:"type:varchar(255)" json:"address"`
	Phone    string `gorm:"type:varchar(20)" json:"phone"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
