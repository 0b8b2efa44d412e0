package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/floorsync/models"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// IsNotFound reports whether err means a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Store is the thin adapter the floor engine talks to. The engine never
// sees gorm directly; inside Transaction every call runs on the same
// database transaction.
type Store interface {
	Transaction(fn func(tx Store) error) error

	FindGuest(id string) (*models.Guest, error)
	FindTable(id string) (*models.Table, error)
	FindTableByNumber(restaurantID, tableNumber string) (*models.Table, error)
	TablesHoldingGuest(guestID string) ([]models.Table, error)

	GuestsByRestaurant(restaurantID string) ([]models.Guest, error)
	TablesByRestaurant(restaurantID string) ([]models.Table, error)
	GuestsUpdatedSince(restaurantID string, since time.Time) ([]models.Guest, error)
	TablesUpdatedSince(restaurantID string, since time.Time) ([]models.Table, error)

	CreateGuest(guest *models.Guest) error
	SaveGuest(guest *models.Guest) error
	DeleteGuest(guest *models.Guest) error
	CreateTable(table *models.Table) error
	SaveTable(table *models.Table) error

	HasActiveReservation(guestID string) (bool, error)
	LogActivity(entry *models.ActivityLog) error
}

type gormStore struct {
	db *gorm.DB
}

// New wraps a gorm handle in the Store interface.
func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Transaction(fn func(tx Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func (s *gormStore) FindGuest(id string) (*models.Guest, error) {
	var guest models.Guest
	if err := s.db.First(&guest, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &guest, nil
}

func (s *gormStore) FindTable(id string) (*models.Table, error) {
	var table models.Table
	if err := s.db.First(&table, "id = ? AND is_active = ?", id, true).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

func (s *gormStore) FindTableByNumber(restaurantID, tableNumber string) (*models.Table, error) {
	var table models.Table
	err := s.db.First(&table, "restaurant_id = ? AND table_number = ? AND is_active = ?",
		restaurantID, tableNumber, true).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (s *gormStore) TablesHoldingGuest(guestID string) ([]models.Table, error) {
	var tables []models.Table
	err := s.db.Where("current_guest_id = ? AND is_active = ?", guestID, true).Find(&tables).Error
	return tables, err
}

func (s *gormStore) GuestsByRestaurant(restaurantID string) ([]models.Guest, error) {
	var guests []models.Guest
	err := s.db.Where("restaurant_id = ?", restaurantID).Find(&guests).Error
	return guests, err
}

func (s *gormStore) TablesByRestaurant(restaurantID string) ([]models.Table, error) {
	var tables []models.Table
	err := s.db.Where("restaurant_id = ? AND is_active = ?", restaurantID, true).Find(&tables).Error
	return tables, err
}

func (s *gormStore) GuestsUpdatedSince(restaurantID string, since time.Time) ([]models.Guest, error) {
	var guests []models.Guest
	err := s.db.Where("restaurant_id = ? AND updated_at > ?", restaurantID, since).
		Order("updated_at ASC").Find(&guests).Error
	return guests, err
}

func (s *gormStore) TablesUpdatedSince(restaurantID string, since time.Time) ([]models.Table, error) {
	var tables []models.Table
	err := s.db.Where("restaurant_id = ? AND updated_at > ?", restaurantID, since).
		Order("updated_at ASC").Find(&tables).Error
	return tables, err
}

func (s *gormStore) CreateGuest(guest *models.Guest) error {
	return s.db.Create(guest).Error
}

func (s *gormStore) SaveGuest(guest *models.Guest) error {
	return s.db.Save(guest).Error
}

func (s *gormStore) DeleteGuest(guest *models.Guest) error {
	return s.db.Delete(guest).Error
}

func (s *gormStore) CreateTable(table *models.Table) error {
	return s.db.Create(table).Error
}

func (s *gormStore) SaveTable(table *models.Table) error {
	return s.db.Save(table).Error
}

func (s *gormStore) HasActiveReservation(guestID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Reservation{}).
		Where("guest_id = ? AND status IN ?", guestID,
			[]string{models.ReservationStatusConfirmed, models.ReservationStatusSeated}).
		Count(&count).Error
	return count > 0, err
}

func (s *gormStore) LogActivity(entry *models.ActivityLog) error {
	return s.db.Create(entry).Error
}
