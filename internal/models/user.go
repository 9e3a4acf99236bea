package models

import "time"

// Role is the authorization role carried in tokens.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleBaker    Role = "baker"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleBaker
}

// User represents a customer or a baker.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email        string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	Phone        string    `json:"phone" gorm:"type:varchar(20)"`
	Place        string    `json:"place" gorm:"type:varchar(255)"`
	Role         Role      `json:"role" gorm:"type:varchar(20);not null;default:customer;index"`
	PushToken    string    `json:"push_token,omitempty" gorm:"type:varchar(255)"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsBaker reports whether the user holds the baker role.
func (u *User) IsBaker() bool {
	return u != nil && u.Role == RoleBaker
}
