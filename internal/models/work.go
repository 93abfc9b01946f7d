// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Status is the moderation state of a work or comment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
)

// Category classifies a work.
type Category string

const (
	CategoryNovel  Category = "novel"
	CategoryProse  Category = "prose"
	CategoryEssay  Category = "essay"
	CategoryPoetry Category = "poetry"
)

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryNovel, CategoryProse, CategoryEssay, CategoryPoetry:
		return true
	}
	return false
}

// Work represents a literary work submitted to the platform.
//
// Author is the display name shown to readers; SubmittedByID records which
// account actually submitted the work. The two differ when an admin publishes
// a personal work under their own byline on behalf of the site.
type Work struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Title       string   `gorm:"not null" json:"title"`
	Content     string   `gorm:"type:text;not null" json:"content"`
	Excerpt     string   `gorm:"type:text" json:"excerpt"`
	Author      string   `gorm:"not null" json:"author"`
	SubmittedBy uint     `gorm:"not null;index" json:"submitted_by"`
	Submitter   User     `gorm:"foreignKey:SubmittedBy" json:"-"`
	Category    Category `gorm:"not null;index" json:"category"`
	IsPersonal  bool     `gorm:"not null;index" json:"is_personal"`
	Status      Status   `gorm:"not null;index" json:"status"`

	// Draft* hold a proposed revision awaiting moderation. They are set
	// together with HasPendingEdit and cleared together when the edit is
	// approved or rejected; the published fields stay live in the meantime.
	DraftTitle     *string `gorm:"type:text" json:"draft_title,omitempty"`
	DraftContent   *string `gorm:"type:text" json:"draft_content,omitempty"`
	DraftExcerpt   *string `gorm:"type:text" json:"draft_excerpt,omitempty"`
	HasPendingEdit bool    `gorm:"not null;default:false" json:"has_pending_edit"`

	IsPinned   bool `gorm:"not null;default:false;index" json:"is_pinned"`
	IsFeatured bool `gorm:"not null;default:false" json:"is_featured"`
	IsHidden   bool `gorm:"not null;default:false" json:"is_hidden"`

	CollectionID   *string `gorm:"index" json:"collection_id,omitempty"`
	CollectionName string  `json:"collection_name,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
