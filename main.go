package main

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/yeremiapane/floorsync/config"
	"github.com/yeremiapane/floorsync/floor"
	"github.com/yeremiapane/floorsync/middlewares"
	"github.com/yeremiapane/floorsync/realtime"
	"github.com/yeremiapane/floorsync/router"
	"github.com/yeremiapane/floorsync/store"
	"github.com/yeremiapane/floorsync/utils"
)

func main() {
	// Missing .env is fine; production configures via real env vars.
	_ = godotenv.Load()

	utils.InitLogger()

	// Partial updates are enumerated structs; a payload naming a field we
	// don't know is a client bug, not something to silently drop.
	binding.EnableDecoderDisallowUnknownFields = true

	db, err := config.InitDB()
	if err != nil {
		panic("failed to connect to database: " + err.Error())
	}
	if err := config.AutoMigrate(db); err != nil {
		panic("failed to migrate database: " + err.Error())
	}

	st := store.New(db)
	synchronizer := floor.NewSynchronizer(utils.InfoLogger)
	processor := floor.NewProcessor(st, synchronizer, utils.InfoLogger)

	var bus realtime.Bus
	if url := config.RedisURL(); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			panic("invalid REDIS_URL: " + err.Error())
		}
		bus = realtime.NewRedisBus(redis.NewClient(opts), utils.InfoLogger)
		utils.InfoLogger.Infof("fan-out bus: redis (%s)", url)
	} else {
		bus = realtime.NewLocalBus()
		utils.InfoLogger.Info("fan-out bus: local (single process)")
	}
	defer bus.Close()

	hub := realtime.NewHub(bus, utils.InfoLogger)
	broadcaster := realtime.NewBroadcaster(bus, hub, utils.InfoLogger)

	r := gin.New()
	r.Use(gin.Recovery())

	router.SetupRouter(r, router.Deps{
		DB:          db,
		Store:       st,
		Processor:   processor,
		Broadcaster: broadcaster,
		Hub:         hub,
		RateLimiter: middlewares.NewRateLimiter(120, 60),
	})

	port := config.Port()
	utils.InfoLogger.Infof("floorsync listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatalf("server stopped: %v", err)
	}
}
