package model

// User struct
type User struct {
	Base
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Role     string `json:"role"`

	Otp_enabled bool `gorm:"default:false;"`
	Otp_secret  string
}

// UserRole maps a user to one of their assigned roles. A user may carry
// several rows; route guards evaluate predicates over the whole set.
type UserRole struct {
	Base
	UserID string `gorm:"index;not null" json:"user_id"`
	Role   string `gorm:"not null" json:"role"`
}
