package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/floorsync/controllers"
	"github.com/yeremiapane/floorsync/floor"
	"github.com/yeremiapane/floorsync/middlewares"
	"github.com/yeremiapane/floorsync/realtime"
	"github.com/yeremiapane/floorsync/store"
)

// Deps carries everything the routes need. Wired once in main and
// injected here; handlers never reach for globals.
type Deps struct {
	DB          *gorm.DB
	Store       store.Store
	Processor   *floor.Processor
	Broadcaster *realtime.Broadcaster
	Hub         *realtime.Hub
	RateLimiter *middlewares.RateLimiter
}

func SetupRouter(r *gin.Engine, d Deps) {
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.RateLimit())
	}

	authController := controllers.NewAuthController(d.DB)
	atomicController := controllers.NewAtomicController(d.Processor, d.Broadcaster)
	guestController := controllers.NewGuestController(d.Store, d.Processor, d.Broadcaster)
	tableController := controllers.NewTableController(d.Store, d.Processor, d.Broadcaster)
	syncController := controllers.NewSyncController(d.Store)
	reservationController := controllers.NewReservationController(d.DB)
	dashboardController := controllers.NewDashboardController(d.Store)
	wsController := controllers.NewWebSocketController(d.Hub)

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Use(middlewares.NewStrictRateLimiter())
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
	}

	protected := api.Group("")
	protected.Use(middlewares.AuthMiddleware())
	{
		atomic := protected.Group("/atomic")
		{
			atomic.POST("/batch", atomicController.ExecuteBatch)
			atomic.GET("/health", atomicController.Health)
		}

		guests := protected.Group("/guests")
		{
			guests.GET("", guestController.GetAllGuests)
			guests.GET("/:id", guestController.GetGuestByID)
			guests.POST("", guestController.CreateGuest)
			guests.PATCH("/:id", guestController.UpdateGuest)
			guests.DELETE("/:id", guestController.DeleteGuest)
		}

		tables := protected.Group("/tables")
		{
			tables.GET("", tableController.GetAllTables)
			tables.GET("/:id", tableController.GetTableByID)
			tables.POST("", tableController.CreateTable)
			tables.PATCH("/:id", tableController.UpdateTable)
			tables.DELETE("/:id", tableController.DeleteTable)
		}

		sync := protected.Group("/sync")
		{
			sync.GET("/full", syncController.FullSync)
			sync.GET("/delta", syncController.DeltaSync)
			sync.GET("/health", syncController.Health)
		}

		reservations := protected.Group("/reservations")
		{
			reservations.GET("", reservationController.GetAllReservations)
			reservations.POST("", reservationController.CreateReservation)
			reservations.POST("/:id/cancel", reservationController.CancelReservation)
		}

		protected.GET("/dashboard/floor", dashboardController.GetFloorStats)
	}

	ws := r.Group("/ws")
	ws.Use(middlewares.WebSocketAuthMiddleware())
	{
		ws.GET("/floor", wsController.HandleFloorUpdates)
	}
}
