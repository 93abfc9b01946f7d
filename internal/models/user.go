package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account on the platform. Exactly one seeded account
// carries IsAdmin and owns all moderation capabilities.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"unique;not null" json:"username"`
	Password  string         `gorm:"not null" json:"-"`
	IsAdmin   bool           `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Works     []Work         `gorm:"foreignKey:SubmittedBy" json:"works,omitempty"`
}
