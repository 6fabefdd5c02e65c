package db

import (
	"errors"
	"fmt"

	"mess_tracker/internal/config" // Application configuration
	"mess_tracker/internal/domain" // Importing domain models
	"mess_tracker/internal/utils"  // Password hashing

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/driver/sqlite"      // SQLite driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM logger levels
)

// SQLiteParams are appended to the SQLite file path
const SQLiteParams = "?_foreign_keys=1&_busy_timeout=5000&_txlock=immediate"

// Open connects to the database selected by cfg.DBDriver
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true, // Surface unique violations as gorm.ErrDuplicatedKey
	}
	switch cfg.DBDriver {
	case "mysql":
		return gorm.Open(mysql.Open(cfg.DSN()), gormCfg)
	case "sqlite":
		// Foreign keys are off by default in SQLite, write transactions lock at BEGIN
		return gorm.Open(sqlite.Open(cfg.SQLitePath+SQLiteParams), gormCfg)
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(&domain.User{}, &domain.Meal{}, &domain.Payment{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}

// SeedAdmin creates the administrator account when it does not exist yet
func SeedAdmin(db *gorm.DB, username, password string, cost int) error {
	var admin domain.User
	err := db.Where("username = ?", username).First(&admin).Error
	if err == nil {
		logrus.WithField("username", username).Info("Admin user already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := utils.HashPassword(password, cost) // Hash the seed password
	if err != nil {
		return fmt.Errorf("seed admin password: %w", err)
	}
	admin = domain.User{Username: username, Password: hash, Role: domain.RoleAdmin, Name: "Administrator"}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	logrus.WithField("username", username).Info("Admin user created")
	return nil
}
