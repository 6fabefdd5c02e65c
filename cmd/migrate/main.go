package main

import (
	"mess_tracker/internal/config" // Custom import path (Config)
	"mess_tracker/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("%v", err)
	}
	if err := db.SeedAdmin(gdb, cfg.AdminUsername, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		logrus.Fatalf("failed to seed admin: %v", err)
	}
}
