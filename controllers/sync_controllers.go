package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/floorsync/store"
	"github.com/yeremiapane/floorsync/utils"
)

// SyncController lets a reconnecting client rebuild its view: a full
// snapshot on first load, a delta since the last seen timestamp after a
// websocket gap.
type SyncController struct {
	Store store.Store
}

func NewSyncController(st store.Store) *SyncController {
	return &SyncController{Store: st}
}

func (sc *SyncController) FullSync(c *gin.Context) {
	restaurantID := c.GetString("restaurant_id")

	guests, err := sc.Store.GuestsByRestaurant(restaurantID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	tables, err := sc.Store.TablesByRestaurant(restaurantID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurant_id": restaurantID,
		"guests":        guests,
		"tables":        tables,
		"timestamp":     time.Now().UTC(),
	})
}

// DeltaSync returns entities whose updated_at is strictly after the
// since parameter. The returned timestamp is the cursor for the next
// call; deleted tables appear with is_active false.
func (sc *SyncController) DeltaSync(c *gin.Context) {
	restaurantID := c.GetString("restaurant_id")

	sinceParam := c.Query("since")
	if sinceParam == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("since query parameter is required"))
		return
	}
	since, err := time.Parse(time.RFC3339, sinceParam)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("since must be an RFC3339 timestamp"))
		return
	}

	guests, err := sc.Store.GuestsUpdatedSince(restaurantID, since)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	tables, err := sc.Store.TablesUpdatedSince(restaurantID, since)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurant_id": restaurantID,
		"since":         since,
		"guests":        guests,
		"tables":        tables,
		"changes":       len(guests) + len(tables),
		"timestamp":     time.Now().UTC(),
	})
}

func (sc *SyncController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "sync",
		"timestamp": time.Now().UTC(),
	})
}
