package models

import "time"

// Collection is an author-curated grouping of works. The row stores the
// collection's identity and byline; which works belong to it is derived from
// the works sharing its ID, never stored here.
type Collection struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`

	// Works holds the visible members, rebuilt on every read.
	Works []Work `gorm:"-" json:"works,omitempty"`
	// EffectiveDate is the newest member's creation time and drives feed
	// ordering, so a collection resurfaces when a new installment lands.
	EffectiveDate time.Time `gorm:"-" json:"effective_date"`
}
