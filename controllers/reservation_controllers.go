package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/floorsync/models"
	"github.com/yeremiapane/floorsync/utils"
)

type ReservationController struct {
	DB *gorm.DB
}

func NewReservationController(db *gorm.DB) *ReservationController {
	return &ReservationController{DB: db}
}

func (rc *ReservationController) GetAllReservations(c *gin.Context) {
	restaurantID := c.GetString("restaurant_id")

	query := rc.DB.Where("restaurant_id = ?", restaurantID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var reservations []models.Reservation
	if err := query.Order("reservation_time ASC").Find(&reservations).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservations retrieved successfully", reservations)
}

func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var input struct {
		GuestID         string    `json:"guest_id" binding:"required"`
		PartySize       int       `json:"party_size" binding:"required,min=1"`
		ReservationTime time.Time `json:"reservation_time" binding:"required"`
		Notes           string    `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	restaurantID := c.GetString("restaurant_id")

	var guest models.Guest
	if err := rc.DB.First(&guest, "id = ?", input.GuestID).Error; err != nil {
		utils.RespondJSON(c, http.StatusNotFound, "Guest not found", nil)
		return
	}
	if guest.RestaurantID != restaurantID {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	reservation := models.Reservation{
		RestaurantID:    restaurantID,
		GuestID:         input.GuestID,
		PartySize:       input.PartySize,
		ReservationTime: input.ReservationTime,
		Status:          models.ReservationStatusConfirmed,
		Notes:           input.Notes,
	}
	if err := rc.DB.Create(&reservation).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Reservation created successfully", reservation)
}

func (rc *ReservationController) CancelReservation(c *gin.Context) {
	var reservation models.Reservation
	if err := rc.DB.First(&reservation, "id = ?", c.Param("id")).Error; err != nil {
		utils.RespondJSON(c, http.StatusNotFound, "Reservation not found", nil)
		return
	}
	if reservation.RestaurantID != c.GetString("restaurant_id") {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}
	if !reservation.Active() {
		utils.RespondError(c, http.StatusConflict, errors.New("reservation is not active"))
		return
	}

	reservation.Status = models.ReservationStatusCancelled
	if err := rc.DB.Save(&reservation).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation cancelled successfully", reservation)
}
