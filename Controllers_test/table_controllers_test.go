package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/floorsync/models"
)

func TestCreateTable(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, http.MethodPost, "/tables", map[string]interface{}{
		"id": "t1",
		"data": map[string]interface{}{
			"table_number": "A1",
			"capacity":     4,
			"position_x":   0.25,
			"position_y":   0.75,
			"section":      "patio",
		},
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var table models.Table
	require.NoError(t, env.db.First(&table, "id = ?", "t1").Error)
	assert.Equal(t, testRestaurantID, table.RestaurantID)
	assert.Equal(t, models.TableStatusAvailable, table.Status)
	assert.Equal(t, 0.25, table.PositionX)
	assert.True(t, table.IsActive)
}

func TestCreateTableDuplicateNumber(t *testing.T) {
	env := setupEnv(t)
	env.seedTable(t, "t1", "A1", 4)

	w := env.do(t, http.MethodPost, "/tables", map[string]interface{}{
		"data": map[string]interface{}{
			"table_number": "A1",
			"capacity":     6,
		},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateTablePositionOutOfRange(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, http.MethodPost, "/tables", map[string]interface{}{
		"data": map[string]interface{}{
			"table_number": "A1",
			"capacity":     4,
			"position_x":   1.2,
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateTableAssignsGuest(t *testing.T) {
	env := setupEnv(t)
	env.seedTable(t, "t1", "A1", 4)
	env.seedGuest(t, "g1", "Ada", 2)

	w := env.do(t, http.MethodPatch, "/tables/t1", map[string]interface{}{
		"current_guest_id": "g1",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var table models.Table
	require.NoError(t, env.db.First(&table, "id = ?", "t1").Error)
	assert.Equal(t, models.TableStatusOccupied, table.Status)
	require.NotNil(t, table.CurrentGuestID)
	assert.Equal(t, "g1", *table.CurrentGuestID)
}

func TestDeleteOccupiedTableConflicts(t *testing.T) {
	env := setupEnv(t)
	env.seedTable(t, "t1", "A1", 4)
	env.seedGuest(t, "g1", "Ada", 2)

	w := env.do(t, http.MethodPatch, "/tables/t1", map[string]interface{}{
		"current_guest_id": "g1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/tables/t1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteTableSoftDeletes(t *testing.T) {
	env := setupEnv(t)
	env.seedTable(t, "t1", "A1", 4)

	w := env.do(t, http.MethodDelete, "/tables/t1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var table models.Table
	require.NoError(t, env.db.First(&table, "id = ?", "t1").Error)
	assert.False(t, table.IsActive)

	w = env.do(t, http.MethodGet, "/tables/t1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTableFromOtherRestaurantForbidden(t *testing.T) {
	env := setupEnv(t)
	require.NoError(t, env.db.Create(&models.Table{
		ID:           "t9",
		RestaurantID: "someone-else",
		TableNumber:  "Z9",
		Capacity:     2,
		Status:       models.TableStatusAvailable,
		IsActive:     true,
	}).Error)

	w := env.do(t, http.MethodGet, "/tables/t9", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
