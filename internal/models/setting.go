package models

import "time"

// Setting keys currently in use.
const (
	SettingSiteSignature = "site_signature"
	SettingLastEdited    = "last_edited"
)

// Setting is a site-wide key/value pair managed by the admin.
type Setting struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
