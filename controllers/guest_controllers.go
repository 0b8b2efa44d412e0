package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeremiapane/floorsync/floor"
	"github.com/yeremiapane/floorsync/realtime"
	"github.com/yeremiapane/floorsync/store"
	"github.com/yeremiapane/floorsync/utils"
)

// GuestController serves the single-entity guest endpoints. Writes are
// funneled through the batch processor so a lone update obeys the same
// invariants as a batch.
type GuestController struct {
	Store       store.Store
	Processor   *floor.Processor
	Broadcaster *realtime.Broadcaster
}

func NewGuestController(st store.Store, processor *floor.Processor, broadcaster *realtime.Broadcaster) *GuestController {
	return &GuestController{Store: st, Processor: processor, Broadcaster: broadcaster}
}

func (gc *GuestController) GetAllGuests(c *gin.Context) {
	restaurantID := c.GetString("restaurant_id")
	guests, err := gc.Store.GuestsByRestaurant(restaurantID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Guests retrieved successfully", guests)
}

func (gc *GuestController) GetGuestByID(c *gin.Context) {
	guest, err := gc.Store.FindGuest(c.Param("id"))
	if err != nil {
		if store.IsNotFound(err) {
			utils.RespondJSON(c, http.StatusNotFound, "Guest not found", nil)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if guest.RestaurantID != c.GetString("restaurant_id") {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Guest retrieved successfully", guest)
}

func (gc *GuestController) CreateGuest(c *gin.Context) {
	var input struct {
		ID   string            `json:"id"`
		Data floor.GuestFields `json:"data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if input.ID == "" {
		input.ID = uuid.NewString()
	}

	restaurantID := c.GetString("restaurant_id")
	if input.Data.RestaurantID == nil {
		input.Data.RestaurantID = &restaurantID
	}

	gc.runSingleOp(c, restaurantID, floor.GuestOperation{
		ID:        input.ID,
		Operation: floor.OpCreate,
		Data:      &input.Data,
	}, http.StatusCreated, "Guest created successfully")
}

func (gc *GuestController) UpdateGuest(c *gin.Context) {
	var data floor.GuestFields
	if err := c.ShouldBindJSON(&data); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	gc.runSingleOp(c, c.GetString("restaurant_id"), floor.GuestOperation{
		ID:        c.Param("id"),
		Operation: floor.OpUpdate,
		Data:      &data,
	}, http.StatusOK, "Guest updated successfully")
}

func (gc *GuestController) DeleteGuest(c *gin.Context) {
	gc.runSingleOp(c, c.GetString("restaurant_id"), floor.GuestOperation{
		ID:        c.Param("id"),
		Operation: floor.OpDelete,
	}, http.StatusOK, "Guest deleted successfully")
}

func (gc *GuestController) runSingleOp(c *gin.Context, restaurantID string, op floor.GuestOperation, okStatus int, okMessage string) {
	req := floor.BatchRequest{
		TransactionID: uuid.NewString(),
		RestaurantID:  restaurantID,
		Guests:        []floor.GuestOperation{op},
	}

	resp := gc.Processor.ExecuteBatch(req)
	if !resp.Success {
		status := statusForBatch(resp.Errs)
		utils.RespondJSON(c, status, firstError(resp.Errors), resp.Results)
		return
	}

	go gc.Broadcaster.PublishBatch(restaurantID, req.TransactionID, resp.Deltas)

	var data interface{}
	if len(resp.Results) > 0 {
		data = resp.Results[0].Data
	}
	utils.RespondJSON(c, okStatus, okMessage, data)
}

func firstError(errs []string) string {
	if len(errs) == 0 {
		return "operation failed"
	}
	return errs[0]
}
