package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeremiapane/floorsync/floor"
	"github.com/yeremiapane/floorsync/realtime"
	"github.com/yeremiapane/floorsync/utils"
)

type AtomicController struct {
	Processor   *floor.Processor
	Broadcaster *realtime.Broadcaster
}

func NewAtomicController(processor *floor.Processor, broadcaster *realtime.Broadcaster) *AtomicController {
	return &AtomicController{Processor: processor, Broadcaster: broadcaster}
}

// ExecuteBatch applies a batch of guest/table operations atomically and
// fans the committed deltas out to all subscribers.
func (ac *AtomicController) ExecuteBatch(c *gin.Context) {
	var req floor.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.TransactionID == "" {
		req.TransactionID = uuid.NewString()
	}

	resp := ac.Processor.ExecuteBatch(req)

	if resp.Success {
		// Fire-and-forget: fan-out never delays or fails the response.
		deltas := resp.Deltas
		go ac.Broadcaster.PublishBatch(req.RestaurantID, req.TransactionID, deltas)
	}

	c.JSON(http.StatusOK, resp)
}

func (ac *AtomicController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "atomic_operations",
		"timestamp": time.Now().UTC(),
	})
}
