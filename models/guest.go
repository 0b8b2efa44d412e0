package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Guest statuses mirror the client enum exactly.
const (
	GuestStatusWaitlist    = "Waitlist"
	GuestStatusArrived     = "Arrived"
	GuestStatusSeated      = "Seated"
	GuestStatusFinished    = "Finished"
	GuestStatusCancelled   = "Cancelled"
	GuestStatusNoShow      = "NoShow"
	GuestStatusRunningLate = "RunningLate"
)

// GuestStatuses lists every valid guest status.
var GuestStatuses = []string{
	GuestStatusWaitlist,
	GuestStatusArrived,
	GuestStatusSeated,
	GuestStatusFinished,
	GuestStatusCancelled,
	GuestStatusNoShow,
	GuestStatusRunningLate,
}

// TerminalGuestStatus reports whether a status ends the visit. A seated
// guest moving into one of these must release its table in the same
// transaction.
func TerminalGuestStatus(status string) bool {
	switch status {
	case GuestStatusFinished, GuestStatusCancelled, GuestStatusNoShow:
		return true
	}
	return false
}

func ValidGuestStatus(status string) bool {
	for _, s := range GuestStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Guest struct {
	ID           string `gorm:"type:varchar(36);primaryKey" json:"id"`
	RestaurantID string `gorm:"type:varchar(36);not null;index" json:"restaurant_id"`

	FirstName string `gorm:"type:varchar(100)" json:"first_name"`
	LastName  string `gorm:"type:varchar(100)" json:"last_name"`
	Email     string `gorm:"type:varchar(255)" json:"email"`
	Phone     string `gorm:"type:varchar(20)" json:"phone"`

	PartySize int     `gorm:"not null;default:1" json:"party_size"`
	Status    string  `gorm:"type:varchar(20);not null;default:'Waitlist';index" json:"status"`
	TableID   *string `gorm:"type:varchar(36);index" json:"table_id"`

	DietaryRestrictions datatypes.JSON `gorm:"type:json" json:"dietary_restrictions"`
	SpecialRequests     string         `gorm:"type:text" json:"special_requests"`
	Notes               string         `gorm:"type:text" json:"notes"`
	TotalVisits         int            `gorm:"default:0" json:"total_visits"`

	CheckInTime  *time.Time `json:"check_in_time"`
	SeatedTime   *time.Time `json:"seated_time"`
	FinishedTime *time.Time `json:"finished_time"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (g *Guest) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// FullName joins the name parts the way the dashboard renders them.
func (g *Guest) FullName() string {
	name := g.FirstName
	if g.LastName != "" {
		if name != "" {
			name += " "
		}
		name += g.LastName
	}
	if name == "" {
		return "Unknown Guest"
	}
	return name
}
