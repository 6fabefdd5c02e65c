package domain

// Roles a user can hold
const (
	RoleAdmin   = "admin"   // Mess administrator
	RoleStudent = "student" // Hostel resident
)

// Identity is the capability the access gateway needs from a session principal
type Identity interface {
	IsAuthenticated() bool
	GetID() uint
	GetRole() string
}

// User Model
type User struct {
	ID       uint    `gorm:"primaryKey"`                       // Primary key
	Username string  `gorm:"size:80;uniqueIndex;not null"`     // Unique username
	Password string  `gorm:"size:120;not null" json:"-"`       // Hashed password
	Role     string  `gorm:"size:20;not null;default:student"` // Role: admin or student
	Name     string  `gorm:"size:100"`                         // Full name
	RollNo   *string `gorm:"size:20;uniqueIndex"`              // Unique roll number, nil for admins
	RoomNo   string  `gorm:"size:10"`                          // Room number
	Contact  string  `gorm:"size:15"`                          // Phone or other contact
}

// IsAuthenticated is true for any stored user
func (u *User) IsAuthenticated() bool { return u != nil && u.ID != 0 }

func (u *User) GetID() uint { return u.ID }

func (u *User) GetRole() string { return u.Role }

// IsAdmin reports whether the user administers the mess
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Roll returns the roll number or an empty string
func (u *User) Roll() string {
	if u.RollNo == nil {
		return ""
	}
	return *u.RollNo
}

// Anonymous is the identity of a request without a bound session
type Anonymous struct{}

func (Anonymous) IsAuthenticated() bool { return false }

func (Anonymous) GetID() uint { return 0 }

func (Anonymous) GetRole() string { return "" }

// HomePath returns the dashboard a role lands on
func HomePath(role string) string {
	switch role {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleStudent:
		return "/student/dashboard"
	}
	return "/login"
}
