// Package store holds the persistence operations on residents, admins and
// payments. Meal rows are owned by the attendance package.
package store

import (
	"context"
	"errors"
	"strings"

	"mess_tracker/internal/apperror"
	"mess_tracker/internal/domain"
	"mess_tracker/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StudentInput carries the editable fields of a resident
type StudentInput struct {
	Username string
	Password string // Empty keeps the current password on update
	Name     string
	RollNo   string
	RoomNo   string
	Contact  string
}

func (in *StudentInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.RollNo = strings.TrimSpace(in.RollNo)
	in.RoomNo = strings.TrimSpace(in.RoomNo)
	in.Contact = strings.TrimSpace(in.Contact)
}

func (in StudentInput) validate(creating bool) error {
	switch {
	case in.Username == "":
		return apperror.ValidationFailed("username", "Username is required")
	case creating && in.Password == "":
		return apperror.ValidationFailed("password", "Password is required")
	case in.Name == "":
		return apperror.ValidationFailed("name", "Name is required")
	case in.RollNo == "":
		return apperror.ValidationFailed("roll_no", "Roll number is required")
	}
	return nil
}

// ensureUnique rejects a username or roll number held by another user
func ensureUnique(tx *gorm.DB, selfID uint, username, rollNo string) error {
	var count int64
	if err := tx.Model(&domain.User{}).Where("username = ? AND id <> ?", username, selfID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperror.Conflict("Username", username)
	}
	if err := tx.Model(&domain.User{}).Where("roll_no = ? AND id <> ?", rollNo, selfID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperror.Conflict("Roll number", rollNo)
	}
	return nil
}

// wrapWriteErr maps store failures of a write to the error taxonomy
func wrapWriteErr(op string, err error) error {
	var appErr *apperror.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &apperror.AppError{Err: apperror.ErrConflict, Message: "Username or roll number already exists"}
	}
	return apperror.TxFailed(op, err)
}

// CreateStudent registers a new resident
func CreateStudent(ctx context.Context, db *gorm.DB, in StudentInput, bcryptCost int) (*domain.User, error) {
	in.normalize()
	if err := in.validate(true); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password, bcryptCost)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}
	roll := in.RollNo
	user := &domain.User{
		Username: in.Username,
		Password: hash,
		Role:     domain.RoleStudent,
		Name:     in.Name,
		RollNo:   &roll,
		RoomNo:   in.RoomNo,
		Contact:  in.Contact,
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, 0, in.Username, in.RollNo); err != nil {
			return err
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, wrapWriteErr("student registration", err)
	}
	logrus.WithFields(logrus.Fields{"student_id": user.ID, "username": user.Username}).Info("Student created")
	return user, nil
}

// UpdateStudent edits a resident's profile. An empty Username in keeps the
// current one, an empty Password keeps the current hash.
func UpdateStudent(ctx context.Context, db *gorm.DB, id uint, in StudentInput, bcryptCost int) (*domain.User, error) {
	in.normalize()
	var user domain.User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND role = ?", id, domain.RoleStudent).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("student", id)
			}
			return err
		}
		if in.Username == "" {
			in.Username = user.Username
		}
		if err := in.validate(false); err != nil {
			return err
		}
		if err := ensureUnique(tx, user.ID, in.Username, in.RollNo); err != nil {
			return err
		}
		roll := in.RollNo
		user.Username = in.Username
		user.Name = in.Name
		user.RollNo = &roll
		user.RoomNo = in.RoomNo
		user.Contact = in.Contact
		if in.Password != "" {
			hash, err := utils.HashPassword(in.Password, bcryptCost)
			if err != nil {
				return apperror.ValidationFailed("password", err.Error())
			}
			user.Password = hash
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, wrapWriteErr("student update", err)
	}
	logrus.WithField("student_id", user.ID).Info("Student updated")
	return &user, nil
}

// DeleteStudent removes a resident together with every meal and payment
// they own
func DeleteStudent(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND role = ?", id, domain.RoleStudent).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("student", id)
			}
			return err
		}
		// Owned rows go first to keep the foreign keys satisfied
		if err := tx.Where("student_id = ?", id).Delete(&domain.Meal{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", id).Delete(&domain.Payment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return nil, wrapWriteErr("student deletion", err)
	}
	logrus.WithFields(logrus.Fields{"student_id": user.ID, "username": user.Username}).Info("Student deleted")
	return &user, nil
}

// ListStudents returns every resident ordered by id
func ListStudents(ctx context.Context, db *gorm.DB) ([]domain.User, error) {
	var students []domain.User
	err := db.WithContext(ctx).Where("role = ?", domain.RoleStudent).Order("id").Find(&students).Error
	return students, err
}

// GetUser loads a user of any role
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ErrInvalidCredentials is returned for an unknown username or a wrong password
var ErrInvalidCredentials = errors.New("invalid username or password")

// Authenticate looks the username up exactly and compares the password hash
func Authenticate(ctx context.Context, db *gorm.DB, username, password string) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := utils.CheckPassword(user.Password, password); err != nil {
		if errors.Is(err, utils.ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return &user, nil
}
