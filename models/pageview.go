package models

import "time"

// PageView is one recorded visit. Rows are append-only: created once per
// request, never updated, never deleted. ArticleID is an unchecked
// reference into the article catalog; it may be nil (non-article page) or
// point at an article that no longer exists, and analytics joins must
// tolerate both.
type PageView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PageURL   string    `gorm:"size:512;not null" json:"pageUrl"`
	UserUUID  string    `gorm:"size:64;index;not null" json:"userUuid"`
	ArticleID *uint     `gorm:"index" json:"articleId,omitempty"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
}
