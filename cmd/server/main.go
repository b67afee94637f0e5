package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/mihalykrich/real-estate-display-system/internal/db"
	"github.com/mihalykrich/real-estate-display-system/internal/http/middleware"
	"github.com/mihalykrich/real-estate-display-system/internal/redis"
	"github.com/mihalykrich/real-estate-display-system/internal/schedule"
)

func main() {
	env := LoadEnvironment()

	// initialize PostgreSQL
	if err := db.Init(env.DatabaseURL); err != nil {
		log.Fatalf("db init: %v", err)
	}

	// run pending migrations
	if err := db.RunMigrations(env.MigrationsPath); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	redis.InitRedis(env.RedisAddress, env.RedisUsername, env.RedisPassword)

	if env.MQTTBrokerURL != "" {
		middleware.SetBrokerURL(env.MQTTBrokerURL)
	}
	defer middleware.CleanupMQTT()

	store := db.NewStore(db.DB)
	storageSystem := InitStorage(env)

	// the applier runs for the lifetime of the server process
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	applier := schedule.NewApplier(
		schedule.Config{TickInterval: env.ApplierInterval},
		store,
		&panelNotifier{store: store},
	)
	go applier.Run(ctx)

	r := gin.Default()
	RegisterRoutes(r, env, store, storageSystem)

	log.Printf("listening on %s", env.ServerAddress)
	if err := r.Run(env.ServerAddress); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
