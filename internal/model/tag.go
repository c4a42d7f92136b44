package model

import "time"

const (
	DefaultTagColor = "#000000"
)

// Tag labels documents of a single user.
type Tag struct {
	ID        string    `gorm:"primaryKey;uuid;not null" json:"id"`
	UserID    string    `gorm:"uuid;not null;index" json:"userId"`
	Name      string    `gorm:"not null" json:"name"`
	Color     string    `gorm:"not null" json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

func (t *Tag) TableName() string {
	return "tags"
}
