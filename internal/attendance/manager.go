// Package attendance records which meals each resident took on each day.
package attendance

import (
	"context"
	"errors"
	"time"

	"mess_tracker/internal/apperror" // Error taxonomy
	"mess_tracker/internal/domain"   // Domain models

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // ORM
	"gorm.io/gorm/clause"        // Upsert clause
)

// SetMealFlag marks or unmarks one meal of a student on date. The row for
// (student, date) is created with every flag off when it does not exist yet,
// and only the requested flag is written. The whole operation runs in one
// transaction; the unique (student_id, date) index turns the find-or-create
// into a single upsert so concurrent toggles of different meals both land.
func SetMealFlag(ctx context.Context, db *gorm.DB, studentID uint, date string, mealType domain.MealType, marked bool) (domain.Meal, error) {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return domain.Meal{}, apperror.ValidationFailed("date", "date must be YYYY-MM-DD")
	}
	if _, err := domain.ParseMealType(string(mealType)); err != nil {
		return domain.Meal{}, apperror.ValidationFailed("meal_type", err.Error())
	}

	var meal domain.Meal
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student domain.User
		if err := tx.Where("id = ? AND role = ?", studentID, domain.RoleStudent).First(&student).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("student", studentID)
			}
			return err
		}

		row := domain.Meal{StudentID: studentID, Date: date}
		switch mealType {
		case domain.Breakfast:
			row.Breakfast = marked
		case domain.Lunch:
			row.Lunch = marked
		case domain.Dinner:
			row.Dinner = marked
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]any{string(mealType): marked}),
		}).Create(&row).Error; err != nil {
			return err
		}

		// Read back the stored row, the upsert may have touched an existing one
		return tx.Where("student_id = ? AND date = ?", studentID, date).First(&meal).Error
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return domain.Meal{}, err
		}
		logrus.WithFields(logrus.Fields{
			"student_id": studentID,
			"date":       date,
			"meal_type":  mealType,
			"marked":     marked,
			"error":      err.Error(),
		}).Error("Attendance update failed")
		return domain.Meal{}, apperror.TxFailed("attendance update", err)
	}

	logrus.WithFields(logrus.Fields{
		"student_id": studentID,
		"date":       date,
		"meal_type":  mealType,
		"marked":     marked,
	}).Info("Attendance updated")
	return meal, nil
}

// MealsOn returns the meal rows of date keyed by student id
func MealsOn(ctx context.Context, db *gorm.DB, date string) (map[uint]domain.Meal, error) {
	var meals []domain.Meal
	if err := db.WithContext(ctx).Where("date = ?", date).Find(&meals).Error; err != nil {
		return nil, err
	}
	byStudent := make(map[uint]domain.Meal, len(meals))
	for _, m := range meals {
		byStudent[m.StudentID] = m
	}
	return byStudent, nil
}

// MealOn returns a student's row for date, or nil when none was recorded
func MealOn(ctx context.Context, db *gorm.DB, studentID uint, date string) (*domain.Meal, error) {
	var meal domain.Meal
	err := db.WithContext(ctx).Where("student_id = ? AND date = ?", studentID, date).First(&meal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meal, nil
}

// History lists a student's meals in [start, end], oldest first
func History(ctx context.Context, db *gorm.DB, studentID uint, start, end string) ([]domain.Meal, error) {
	var meals []domain.Meal
	err := db.WithContext(ctx).
		Where("student_id = ? AND date BETWEEN ? AND ?", studentID, start, end).
		Order("date").
		Find(&meals).Error
	return meals, err
}

// Recent lists a student's latest meals, newest first
func Recent(ctx context.Context, db *gorm.DB, studentID uint, limit int) ([]domain.Meal, error) {
	var meals []domain.Meal
	err := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("date desc").
		Limit(limit).
		Find(&meals).Error
	return meals, err
}
