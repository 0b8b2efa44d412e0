package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/floorsync/controllers"
	"github.com/yeremiapane/floorsync/floor"
	"github.com/yeremiapane/floorsync/models"
	"github.com/yeremiapane/floorsync/realtime"
	"github.com/yeremiapane/floorsync/store"
	"github.com/yeremiapane/floorsync/utils"
)

const testRestaurantID = "rest-1"

type testEnv struct {
	db     *gorm.DB
	store  store.Store
	router *gin.Engine
}

// setupEnv wires the whole request stack against an in-memory database.
// Auth is replaced by a middleware that injects the claims directly.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	binding.EnableDecoderDisallowUnknownFields = true

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.Guest{},
		&models.Table{},
		&models.Reservation{},
		&models.ActivityLog{},
	))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	st := store.New(db)
	processor := floor.NewProcessor(st, floor.NewSynchronizer(log), log)
	bus := realtime.NewLocalBus()
	hub := realtime.NewHub(bus, log)
	broadcaster := realtime.NewBroadcaster(bus, hub, log)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", uint(1))
		c.Set("role", "admin")
		c.Set("restaurant_id", testRestaurantID)
		c.Next()
	})

	atomicCtrl := controllers.NewAtomicController(processor, broadcaster)
	guestCtrl := controllers.NewGuestController(st, processor, broadcaster)
	tableCtrl := controllers.NewTableController(st, processor, broadcaster)
	syncCtrl := controllers.NewSyncController(st)
	reservationCtrl := controllers.NewReservationController(db)
	dashboardCtrl := controllers.NewDashboardController(st)

	r.POST("/atomic/batch", atomicCtrl.ExecuteBatch)
	r.GET("/atomic/health", atomicCtrl.Health)
	r.GET("/guests", guestCtrl.GetAllGuests)
	r.GET("/guests/:id", guestCtrl.GetGuestByID)
	r.POST("/guests", guestCtrl.CreateGuest)
	r.PATCH("/guests/:id", guestCtrl.UpdateGuest)
	r.DELETE("/guests/:id", guestCtrl.DeleteGuest)
	r.GET("/tables", tableCtrl.GetAllTables)
	r.GET("/tables/:id", tableCtrl.GetTableByID)
	r.POST("/tables", tableCtrl.CreateTable)
	r.PATCH("/tables/:id", tableCtrl.UpdateTable)
	r.DELETE("/tables/:id", tableCtrl.DeleteTable)
	r.GET("/sync/full", syncCtrl.FullSync)
	r.GET("/sync/delta", syncCtrl.DeltaSync)
	r.GET("/reservations", reservationCtrl.GetAllReservations)
	r.POST("/reservations", reservationCtrl.CreateReservation)
	r.POST("/reservations/:id/cancel", reservationCtrl.CancelReservation)
	r.GET("/dashboard/floor", dashboardCtrl.GetFloorStats)

	return &testEnv{db: db, store: st, router: r}
}

func (e *testEnv) do(t *testing.T, method, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewBuffer(raw)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, url, buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (e *testEnv) seedTable(t *testing.T, id, number string, capacity int) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.Table{
		ID:           id,
		RestaurantID: testRestaurantID,
		TableNumber:  number,
		Capacity:     capacity,
		MinPartySize: 1,
		Status:       models.TableStatusAvailable,
		IsActive:     true,
	}).Error)
}

func (e *testEnv) seedGuest(t *testing.T, id, firstName string, partySize int) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.Guest{
		ID:           id,
		RestaurantID: testRestaurantID,
		FirstName:    firstName,
		PartySize:    partySize,
		Status:       models.GuestStatusWaitlist,
	}).Error)
}
