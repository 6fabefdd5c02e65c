package domain

import "fmt"

// DateLayout is the storage and wire format of calendar dates
const DateLayout = "2006-01-02"

// MealType names one of the three daily meals
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
)

// ParseMealType validates a meal type coming from a form
func ParseMealType(s string) (MealType, error) {
	switch MealType(s) {
	case Breakfast, Lunch, Dinner:
		return MealType(s), nil
	}
	return "", fmt.Errorf("unknown meal type %q", s)
}

// Meal Model, one row per student per calendar date
type Meal struct {
	ID        uint   `gorm:"primaryKey"`                                                 // Primary key
	Date      string `gorm:"size:10;not null;uniqueIndex:idx_meal_student_date,priority:2"` // YYYY-MM-DD
	Breakfast bool   `gorm:"not null;default:false"`                                     // Breakfast taken
	Lunch     bool   `gorm:"not null;default:false"`                                     // Lunch taken
	Dinner    bool   `gorm:"not null;default:false"`                                     // Dinner taken
	StudentID uint   `gorm:"not null;uniqueIndex:idx_meal_student_date,priority:1"`      // Foreign key to User

	Student User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE;" json:"-"` // Owning student
}

// Count returns how many of the three meals are marked
func (m Meal) Count() int {
	n := 0
	for _, marked := range []bool{m.Breakfast, m.Lunch, m.Dinner} {
		if marked {
			n++
		}
	}
	return n
}

// Flag reports the state of a single meal
func (m Meal) Flag(t MealType) bool {
	switch t {
	case Breakfast:
		return m.Breakfast
	case Lunch:
		return m.Lunch
	case Dinner:
		return m.Dinner
	}
	return false
}
