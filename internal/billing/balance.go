// Package billing derives what residents owe from their marked meals and
// recorded payments.
package billing

import (
	"context"

	"mess_tracker/internal/domain" // Domain models
	"mess_tracker/internal/utils"  // Dates

	"gorm.io/gorm" // ORM
)

// Epoch is the earliest date a balance range can start from
const Epoch = "0001-01-01"

// mealsExpr counts marked flags per row as 0/1 on both MySQL and SQLite
const mealsExpr = "COALESCE(SUM(CASE WHEN breakfast THEN 1 ELSE 0 END + CASE WHEN lunch THEN 1 ELSE 0 END + CASE WHEN dinner THEN 1 ELSE 0 END), 0)"

// Balance is a student's standing over a date range. A positive Balance is
// credit, a negative one is debt.
type Balance struct {
	TotalMeals int64   `json:"total_meals"`
	TotalDue   float64 `json:"total_due"`
	TotalPaid  float64 `json:"total_paid"`
	Balance    float64 `json:"balance"`
}

func newBalance(meals int64, paid, mealCost float64) Balance {
	due := float64(meals) * mealCost
	return Balance{TotalMeals: meals, TotalDue: due, TotalPaid: paid, Balance: paid - due}
}

// InDebt reports whether the student owes money
func (b Balance) InDebt() bool { return b.Balance < 0 }

// ComputeBalance sums a student's meals and payments in [start, end]. An
// empty start means Epoch and an empty end means today.
func ComputeBalance(ctx context.Context, db *gorm.DB, mealCost float64, studentID uint, start, end string) (Balance, error) {
	if start == "" {
		start = Epoch
	}
	if end == "" {
		end = utils.Today()
	}
	db = db.WithContext(ctx)

	var meals int64
	if err := db.Model(&domain.Meal{}).
		Where("student_id = ? AND date BETWEEN ? AND ?", studentID, start, end).
		Select(mealsExpr).
		Scan(&meals).Error; err != nil {
		return Balance{}, err
	}

	var paid float64
	if err := db.Model(&domain.Payment{}).
		Where("student_id = ? AND date BETWEEN ? AND ?", studentID, start, end).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paid).Error; err != nil {
		return Balance{}, err
	}

	return newBalance(meals, paid, mealCost), nil
}

// StudentBalance pairs a student with their lifetime balance
type StudentBalance struct {
	Student domain.User
	Balance
}

// LifetimeBalances computes the balance of every student from Epoch to
// today, ordered by student id. It agrees with ComputeBalance called with
// the default range, so future-dated rows are not counted yet.
func LifetimeBalances(ctx context.Context, db *gorm.DB, mealCost float64) ([]StudentBalance, error) {
	db = db.WithContext(ctx)
	today := utils.Today()

	var students []domain.User
	if err := db.Where("role = ?", domain.RoleStudent).Order("id").Find(&students).Error; err != nil {
		return nil, err
	}

	var mealRows []struct {
		StudentID uint
		Meals     int64
	}
	if err := db.Model(&domain.Meal{}).
		Select("student_id, "+mealsExpr+" AS meals").
		Where("date <= ?", today).
		Group("student_id").
		Scan(&mealRows).Error; err != nil {
		return nil, err
	}
	meals := make(map[uint]int64, len(mealRows))
	for _, r := range mealRows {
		meals[r.StudentID] = r.Meals
	}

	var paymentRows []struct {
		StudentID uint
		Paid      float64
	}
	if err := db.Model(&domain.Payment{}).
		Select("student_id, COALESCE(SUM(amount), 0) AS paid").
		Where("date <= ?", today).
		Group("student_id").
		Scan(&paymentRows).Error; err != nil {
		return nil, err
	}
	paid := make(map[uint]float64, len(paymentRows))
	for _, r := range paymentRows {
		paid[r.StudentID] = r.Paid
	}

	out := make([]StudentBalance, len(students))
	for i, s := range students {
		out[i] = StudentBalance{Student: s, Balance: newBalance(meals[s.ID], paid[s.ID], mealCost)}
	}
	return out, nil
}
