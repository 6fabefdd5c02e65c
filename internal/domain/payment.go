package domain

// Payment statuses
const (
	PaymentPending = "pending" // Recorded but not settled
	PaymentPaid    = "paid"    // Cash received
)

// Payment Model
type Payment struct {
	ID        uint    `gorm:"primaryKey"`                    // Primary key
	Date      string  `gorm:"size:10;not null;index"`        // YYYY-MM-DD, defaults to the day it was recorded
	Amount    float64 `gorm:"not null"`                      // Amount received, never negative
	Status    string  `gorm:"size:20;not null;default:paid"` // pending or paid
	StudentID uint    `gorm:"not null;index"`                // Foreign key to User

	Student User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE;" json:"-"` // Owning student
}
