package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a reader comment on a work. Comments always enter the
// system pending and only appear publicly once approved.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Author    string         `gorm:"not null" json:"author"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	WorkID    uint           `gorm:"not null;index" json:"work_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	Work      Work           `gorm:"foreignKey:WorkID" json:"-"`
	Status    Status         `gorm:"not null;index" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
