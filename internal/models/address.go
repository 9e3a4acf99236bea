package models

import "time"

// Address is a delivery address owned by a user.
type Address struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);index;not null"`
	Line1     string    `json:"line1" gorm:"type:varchar(255);not null"`
	Line2     string    `json:"line2" gorm:"type:varchar(255)"`
	City      string    `json:"city" gorm:"type:varchar(100);not null"`
	State     string    `json:"state" gorm:"type:varchar(100);not null"`
	Pincode   string    `json:"pincode" gorm:"type:varchar(20);not null"`
	MapLink   string    `json:"map_link,omitempty" gorm:"type:varchar(500)"`
	IsDefault bool      `json:"is_default" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
