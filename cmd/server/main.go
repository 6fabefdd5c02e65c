package main

import (
	"context"  // context package is needed for Redis operations
	"net/http" // Cookie SameSite mode

	"mess_tracker/internal/api"     // HTTP handlers and router
	"mess_tracker/internal/config"  // Configuration
	"mess_tracker/internal/db"      // Database connection and migration
	"mess_tracker/internal/session" // Redis session store
	"mess_tracker/internal/utils"   // Redis cache

	"github.com/gin-contrib/sessions"        // Session middleware
	"github.com/gin-contrib/sessions/cookie" // Cookie session store
	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/redis/go-redis/v9"           // Redis client
	"github.com/sirupsen/logrus"             // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database and bring the schema up to date
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}
	if err := db.SeedAdmin(gdb, cfg.AdminUsername, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		logrus.Fatalf("failed to seed admin: %v", err)
	}

	// Redis backs sessions and the read cache when configured
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
	}

	// Session store
	var store sessions.Store
	if redisClient != nil {
		store = session.NewRedisStore(redisClient, []byte(cfg.SessionSecret))
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProd,
		SameSite: http.SameSiteLaxMode,
	})

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	app := &api.App{
		DB:         gdb,
		Cache:      utils.NewCache(redisClient),
		MealCost:   cfg.MealCost,
		Currency:   cfg.CurrencySymbol,
		BcryptCost: cfg.BcryptCost,
	}
	r, err := api.NewRouter(app, store)
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"port":      cfg.AppPort,
		"db_driver": cfg.DBDriver,
		"redis":     redisClient != nil,
	}).Info("Server running")
	if err := r.Run(":" + cfg.AppPort); err != nil { // Start the server on port cfg.AppPort
		logrus.Fatalf("server stopped: %v", err)
	}
}
