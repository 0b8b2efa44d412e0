package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/floorsync/realtime"
	"github.com/yeremiapane/floorsync/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketController struct {
	Hub *realtime.Hub
}

func NewWebSocketController(hub *realtime.Hub) *WebSocketController {
	return &WebSocketController{Hub: hub}
}

// HandleFloorUpdates upgrades the request and attaches the connection to
// its restaurant's room until the peer disconnects.
func (wc *WebSocketController) HandleFloorUpdates(c *gin.Context) {
	restaurantID := c.GetString("restaurant_id")
	if restaurantID == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("websocket upgrade failed: %v", err)
		return
	}

	client := realtime.NewClient(wc.Hub, conn, restaurantID, utils.InfoLogger)
	client.Run()
}
