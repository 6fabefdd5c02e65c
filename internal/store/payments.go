package store

import (
	"context"
	"errors"
	"math"
	"time"

	"mess_tracker/internal/apperror"
	"mess_tracker/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RecordPayment stores a cash payment as paid on date
func RecordPayment(ctx context.Context, db *gorm.DB, studentID uint, amount float64, date string) (*domain.Payment, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return nil, apperror.ValidationFailed("amount", "Amount must be a non-negative number")
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, apperror.ValidationFailed("date", "date must be YYYY-MM-DD")
	}
	payment := &domain.Payment{StudentID: studentID, Amount: amount, Date: date, Status: domain.PaymentPaid}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student domain.User
		if err := tx.Where("id = ? AND role = ?", studentID, domain.RoleStudent).First(&student).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("student", studentID)
			}
			return err
		}
		return tx.Create(payment).Error
	})
	if err != nil {
		return nil, wrapWriteErr("payment recording", err)
	}
	logrus.WithFields(logrus.Fields{
		"student_id": studentID,
		"payment_id": payment.ID,
		"amount":     amount,
		"date":       date,
	}).Info("Payment recorded")
	return payment, nil
}

// ListPayments returns every payment with its student, newest first
func ListPayments(ctx context.Context, db *gorm.DB) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := db.WithContext(ctx).Preload("Student").Order("date desc, id desc").Find(&payments).Error
	return payments, err
}

// StudentPayments returns a student's own payments, newest first
func StudentPayments(ctx context.Context, db *gorm.DB, studentID uint) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := db.WithContext(ctx).Where("student_id = ?", studentID).Order("date desc, id desc").Find(&payments).Error
	return payments, err
}
