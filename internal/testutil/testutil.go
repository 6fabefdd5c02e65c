// Package testutil builds throwaway stores for package tests.
package testutil

import (
	"testing"

	"mess_tracker/internal/config"
	"mess_tracker/internal/db"
	"mess_tracker/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewDB returns a migrated SQLite database living in the test's temp dir.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: t.TempDir() + "/mess.db"}
	gdb, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

// CreateStudent inserts a student whose password is the username.
func CreateStudent(t *testing.T, gdb *gorm.DB, username, name, roll string) *domain.User {
	t.Helper()
	return createUser(t, gdb, username, name, &roll, domain.RoleStudent)
}

// CreateAdmin inserts an admin whose password is the username.
func CreateAdmin(t *testing.T, gdb *gorm.DB, username string) *domain.User {
	t.Helper()
	return createUser(t, gdb, username, "Admin", nil, domain.RoleAdmin)
}

func createUser(t *testing.T, gdb *gorm.DB, username, name string, roll *string, role string) *domain.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(username), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{Username: username, Password: string(hash), Role: role, Name: name, RollNo: roll}
	if err := gdb.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// AddMeal stores a meal row directly.
func AddMeal(t *testing.T, gdb *gorm.DB, studentID uint, date string, breakfast, lunch, dinner bool) domain.Meal {
	t.Helper()
	m := domain.Meal{StudentID: studentID, Date: date}
	if err := gdb.Create(&m).Error; err != nil {
		t.Fatalf("create meal: %v", err)
	}
	// Zero-valued flags are skipped by Create because of their column default
	if err := gdb.Model(&m).Updates(map[string]any{"breakfast": breakfast, "lunch": lunch, "dinner": dinner}).Error; err != nil {
		t.Fatalf("set meal flags: %v", err)
	}
	m.Breakfast, m.Lunch, m.Dinner = breakfast, lunch, dinner
	return m
}

// AddPayment stores a paid payment directly.
func AddPayment(t *testing.T, gdb *gorm.DB, studentID uint, date string, amount float64) domain.Payment {
	t.Helper()
	p := domain.Payment{StudentID: studentID, Date: date, Amount: amount, Status: domain.PaymentPaid}
	if err := gdb.Create(&p).Error; err != nil {
		t.Fatalf("create payment: %v", err)
	}
	return p
}
