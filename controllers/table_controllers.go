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

type TableController struct {
	Store       store.Store
	Processor   *floor.Processor
	Broadcaster *realtime.Broadcaster
}

func NewTableController(st store.Store, processor *floor.Processor, broadcaster *realtime.Broadcaster) *TableController {
	return &TableController{Store: st, Processor: processor, Broadcaster: broadcaster}
}

func (tc *TableController) GetAllTables(c *gin.Context) {
	restaurantID := c.GetString("restaurant_id")
	tables, err := tc.Store.TablesByRestaurant(restaurantID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tables retrieved successfully", tables)
}

func (tc *TableController) GetTableByID(c *gin.Context) {
	table, err := tc.Store.FindTable(c.Param("id"))
	if err != nil {
		if store.IsNotFound(err) {
			utils.RespondJSON(c, http.StatusNotFound, "Table not found", nil)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if table.RestaurantID != c.GetString("restaurant_id") {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table retrieved successfully", table)
}

func (tc *TableController) CreateTable(c *gin.Context) {
	var input struct {
		ID   string            `json:"id"`
		Data floor.TableFields `json:"data" binding:"required"`
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

	tc.runSingleOp(c, restaurantID, floor.TableOperation{
		ID:        input.ID,
		Operation: floor.OpCreate,
		Data:      &input.Data,
	}, http.StatusCreated, "Table created successfully")
}

func (tc *TableController) UpdateTable(c *gin.Context) {
	var data floor.TableFields
	if err := c.ShouldBindJSON(&data); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	tc.runSingleOp(c, c.GetString("restaurant_id"), floor.TableOperation{
		ID:        c.Param("id"),
		Operation: floor.OpUpdate,
		Data:      &data,
	}, http.StatusOK, "Table updated successfully")
}

func (tc *TableController) DeleteTable(c *gin.Context) {
	tc.runSingleOp(c, c.GetString("restaurant_id"), floor.TableOperation{
		ID:        c.Param("id"),
		Operation: floor.OpDelete,
	}, http.StatusOK, "Table deleted successfully")
}

func (tc *TableController) runSingleOp(c *gin.Context, restaurantID string, op floor.TableOperation, okStatus int, okMessage string) {
	req := floor.BatchRequest{
		TransactionID: uuid.NewString(),
		RestaurantID:  restaurantID,
		Tables:        []floor.TableOperation{op},
	}

	resp := tc.Processor.ExecuteBatch(req)
	if !resp.Success {
		status := statusForBatch(resp.Errs)
		utils.RespondJSON(c, status, firstError(resp.Errors), resp.Results)
		return
	}

	go tc.Broadcaster.PublishBatch(restaurantID, req.TransactionID, resp.Deltas)

	var data interface{}
	if len(resp.Results) > 0 {
		data = resp.Results[0].Data
	}
	utils.RespondJSON(c, okStatus, okMessage, data)
}
