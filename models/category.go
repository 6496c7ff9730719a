package models

import "time"

// Category is a display name plus its URL slug. Renaming or deleting a
// category does not cascade to Article.Category/CategoryURL.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;uniqueIndex;not null" json:"name"`
	URL       string    `gorm:"size:128;uniqueIndex;not null" json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
