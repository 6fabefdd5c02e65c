// Package report aggregates meals and payments into the four admin reports.
// A Report is rendered either as a page or as CSV; both renderings share the
// same rows and column order.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"mess_tracker/internal/apperror"
	"mess_tracker/internal/billing"
	"mess_tracker/internal/domain"

	"gorm.io/gorm"
)

// Kind selects a report
type Kind string

const (
	Attendance  Kind = "attendance"
	Defaulters  Kind = "defaulters"
	Collections Kind = "collections"
	Payments    Kind = "payments"
)

// Kinds lists every report in menu order
var Kinds = []Kind{Attendance, Defaulters, Collections, Payments}

// ParseKind validates a report type coming from the query string
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", apperror.ValidationFailed("type", fmt.Sprintf("Unknown report type %q", s))
}

// AttendanceRow is one student's meals on one day
type AttendanceRow struct {
	Date        string // YYYY-MM-DD
	StudentName string
	RollNo      string
	Breakfast   bool
	Lunch       bool
	Dinner      bool
	Total       int // Meals taken that day, 0 to 3
}

// DefaulterRow is a student whose balance is below zero
type DefaulterRow struct {
	StudentName string
	RollNo      string
	TotalPaid   float64
	TotalDue    float64 // Meals times the meal cost
	Balance     float64 // Negative, TotalPaid minus TotalDue
}

// CollectionRow is the payment total of one calendar month
type CollectionRow struct {
	Month string // "2024-01"
	Label string // "January 2024"
	Total float64
}

// PaymentRow is one recorded payment with its student
type PaymentRow struct {
	Date        string // YYYY-MM-DD
	StudentName string
	RollNo      string
	Amount      float64
	Status      string // paid or pending
}

// Report is the display form of a report. Only the rows of Kind are set.
type Report struct {
	Kind  Kind
	Start string
	End   string

	Attendance  []AttendanceRow
	Defaulters  []DefaulterRow
	Collections []CollectionRow
	Payments    []PaymentRow
}

// Build runs the report of kind over [start, end]. The defaulters report
// ignores the range and uses lifetime balances.
func Build(ctx context.Context, db *gorm.DB, mealCost float64, kind Kind, start, end string) (*Report, error) {
	r := &Report{Kind: kind, Start: start, End: end}
	db = db.WithContext(ctx)

	var err error
	switch kind {
	case Attendance:
		r.Attendance, err = attendanceRows(db, start, end)
	case Defaulters:
		r.Defaulters, err = defaulterRows(ctx, db, mealCost)
	case Collections:
		r.Collections, err = collectionRows(db, start, end)
	case Payments:
		r.Payments, err = paymentRows(db, start, end)
	default:
		_, err = ParseKind(string(kind))
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Len returns the number of rows of the report
func (r *Report) Len() int {
	switch r.Kind {
	case Attendance:
		return len(r.Attendance)
	case Defaulters:
		return len(r.Defaulters)
	case Collections:
		return len(r.Collections)
	case Payments:
		return len(r.Payments)
	}
	return 0
}

func attendanceRows(db *gorm.DB, start, end string) ([]AttendanceRow, error) {
	var meals []domain.Meal
	if err := db.Preload("Student").
		Where("date BETWEEN ? AND ?", start, end).
		Order("date, student_id").
		Find(&meals).Error; err != nil {
		return nil, err
	}
	rows := make([]AttendanceRow, len(meals))
	for i, m := range meals {
		rows[i] = AttendanceRow{
			Date:        m.Date,
			StudentName: m.Student.Name,
			RollNo:      m.Student.Roll(),
			Breakfast:   m.Breakfast,
			Lunch:       m.Lunch,
			Dinner:      m.Dinner,
			Total:       m.Count(),
		}
	}
	return rows, nil
}

func defaulterRows(ctx context.Context, db *gorm.DB, mealCost float64) ([]DefaulterRow, error) {
	balances, err := billing.LifetimeBalances(ctx, db, mealCost)
	if err != nil {
		return nil, err
	}
	rows := []DefaulterRow{}
	for _, b := range balances {
		if !b.InDebt() {
			continue
		}
		rows = append(rows, DefaulterRow{
			StudentName: b.Student.Name,
			RollNo:      b.Student.Roll(),
			TotalPaid:   b.TotalPaid,
			TotalDue:    b.TotalDue,
			Balance:     b.Balance.Balance,
		})
	}
	return rows, nil
}

func collectionRows(db *gorm.DB, start, end string) ([]CollectionRow, error) {
	var payments []domain.Payment
	if err := db.Where("date BETWEEN ? AND ?", start, end).Find(&payments).Error; err != nil {
		return nil, err
	}
	totals := map[string]float64{}
	for _, p := range payments {
		totals[p.Date[:7]] += p.Amount
	}
	months := make([]string, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Strings(months)

	rows := make([]CollectionRow, len(months))
	for i, m := range months {
		label := m
		if t, err := time.Parse("2006-01", m); err == nil {
			label = t.Format("January 2006")
		}
		rows[i] = CollectionRow{Month: m, Label: label, Total: totals[m]}
	}
	return rows, nil
}

func paymentRows(db *gorm.DB, start, end string) ([]PaymentRow, error) {
	var payments []domain.Payment
	if err := db.Preload("Student").
		Where("date BETWEEN ? AND ?", start, end).
		Order("date, id").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	rows := make([]PaymentRow, len(payments))
	for i, p := range payments {
		rows[i] = PaymentRow{
			Date:        p.Date,
			StudentName: p.Student.Name,
			RollNo:      p.Student.Roll(),
			Amount:      p.Amount,
			Status:      p.Status,
		}
	}
	return rows, nil
}
