package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/floorsync/models"
	"github.com/yeremiapane/floorsync/store"
	"github.com/yeremiapane/floorsync/utils"
)

// DashboardController aggregates the occupancy numbers the floor view
// renders in its header.
type DashboardController struct {
	Store store.Store
}

func NewDashboardController(st store.Store) *DashboardController {
	return &DashboardController{Store: st}
}

func (dc *DashboardController) GetFloorStats(c *gin.Context) {
	restaurantID := c.GetString("restaurant_id")

	tables, err := dc.Store.TablesByRestaurant(restaurantID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	guests, err := dc.Store.GuestsByRestaurant(restaurantID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	tablesByStatus := map[string]int{}
	seatedCovers := 0
	for _, t := range tables {
		tablesByStatus[t.Status]++
	}

	guestsByStatus := map[string]int{}
	waiting := 0
	for _, g := range guests {
		guestsByStatus[g.Status]++
		switch g.Status {
		case models.GuestStatusSeated:
			seatedCovers += g.PartySize
		case models.GuestStatusWaitlist, models.GuestStatusArrived:
			waiting++
		}
	}

	occupancyRate := 0.0
	if len(tables) > 0 {
		occupancyRate = float64(tablesByStatus[models.TableStatusOccupied]) / float64(len(tables))
	}

	utils.RespondJSON(c, http.StatusOK, "Floor stats retrieved successfully", gin.H{
		"total_tables":     len(tables),
		"tables_by_status": tablesByStatus,
		"occupancy_rate":   occupancyRate,
		"total_guests":     len(guests),
		"guests_by_status": guestsByStatus,
		"seated_covers":    seatedCovers,
		"parties_waiting":  waiting,
		"timestamp":        time.Now().UTC(),
	})
}
