package billing

import (
	"context"

	"mess_tracker/internal/domain"

	"gorm.io/gorm"
)

// DashboardTotals is what the admin sees on landing
type DashboardTotals struct {
	Date           string  `json:"date"`
	BreakfastCount int64   `json:"breakfast_count"`
	LunchCount     int64   `json:"lunch_count"`
	DinnerCount    int64   `json:"dinner_count"`
	TotalStudents  int64   `json:"total_students"`
	TotalPayments  float64 `json:"total_payments"`
	TotalDues      float64 `json:"total_dues"` // Sum of outstanding debts
}

// Dashboard gathers the meal counts for day and the mess-wide money totals
func Dashboard(ctx context.Context, db *gorm.DB, mealCost float64, day string) (DashboardTotals, error) {
	totals := DashboardTotals{Date: day}
	db = db.WithContext(ctx)

	var counts struct {
		Breakfast int64
		Lunch     int64
		Dinner    int64
	}
	if err := db.Model(&domain.Meal{}).
		Select("COALESCE(SUM(CASE WHEN breakfast THEN 1 ELSE 0 END), 0) AS breakfast, "+
			"COALESCE(SUM(CASE WHEN lunch THEN 1 ELSE 0 END), 0) AS lunch, "+
			"COALESCE(SUM(CASE WHEN dinner THEN 1 ELSE 0 END), 0) AS dinner").
		Where("date = ?", day).
		Scan(&counts).Error; err != nil {
		return totals, err
	}
	totals.BreakfastCount, totals.LunchCount, totals.DinnerCount = counts.Breakfast, counts.Lunch, counts.Dinner

	if err := db.Model(&domain.User{}).Where("role = ?", domain.RoleStudent).Count(&totals.TotalStudents).Error; err != nil {
		return totals, err
	}
	if err := db.Model(&domain.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("date <= ?", day). // Same cut-off as the balances below
		Scan(&totals.TotalPayments).Error; err != nil {
		return totals, err
	}

	balances, err := LifetimeBalances(ctx, db, mealCost)
	if err != nil {
		return totals, err
	}
	for _, b := range balances {
		if b.InDebt() {
			totals.TotalDues -= b.Balance.Balance
		}
	}
	return totals, nil
}
