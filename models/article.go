package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// TagList stores article tags as a comma separated string while exposing
// a JSON array to API clients.
type TagList []string

// Value implements driver.Valuer for persistence.
func (t TagList) Value() (driver.Value, error) {
	return strings.Join(t, ","), nil
}

// Scan implements sql.Scanner.
func (t *TagList) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*t = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported tag list type %T", value)
	}
	if raw == "" {
		*t = TagList{}
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make(TagList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*t = out
	return nil
}

// Article is a published catalog entry. CategoryURL always holds the
// slugified form of Category as of the last write; renaming a Category
// does not cascade here. URL is stable once set and recomputed only when
// the title changes.
type Article struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Summary        string    `gorm:"type:text;not null" json:"summary"`
	Description    string    `gorm:"type:text;not null" json:"description"`
	Date           time.Time `gorm:"index;not null" json:"date"`
	ReadTime       string    `gorm:"size:32;not null" json:"readTime"`
	Author         string    `gorm:"size:128;not null" json:"author"`
	Thumbnail      string    `gorm:"size:512;not null" json:"thumbnail"`
	Category       string    `gorm:"size:128;index;not null" json:"category"`
	CategoryURL    string    `gorm:"size:128;index;not null" json:"categoryUrl"`
	Tags           TagList   `gorm:"type:text" json:"tags"`
	MainArticleURL string    `gorm:"size:512" json:"mainArticleUrl"`
	IsFeatured     bool      `gorm:"index;default:false" json:"isFeatured"`
	URL            string    `gorm:"size:255;uniqueIndex" json:"url"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
