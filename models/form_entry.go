package models

import "time"

// FormEntry stores one contact form submission.
type FormEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FullName    string    `gorm:"size:128;not null" json:"fullName"`
	Email       string    `gorm:"size:255;not null" json:"email"`
	Subject     string    `gorm:"size:255;not null" json:"subject"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
