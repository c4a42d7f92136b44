package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	// DefaultTitle is given to documents created without a title.
	DefaultTitle = "Untitled"
)

// Document is a single note in the forest. ParentID is nil for root documents.
// Order ranks the document among the siblings sharing its ParentID, it does not
// need to be contiguous or unique.
type Document struct {
	ID          string     `gorm:"primaryKey;uuid;not null" json:"id"`
	UserID      string     `gorm:"uuid;not null;index:idx_documents_user_parent" json:"userId"`
	Title       string     `gorm:"not null" json:"title"`
	ParentID    *string    `gorm:"uuid;index:idx_documents_user_parent" json:"parentId"`
	Order       float64    `gorm:"column:position;not null;default:0" json:"order"`
	Content     string     `json:"content,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	CoverImage  string     `json:"coverImage,omitempty"`
	IsArchived  bool       `gorm:"not null;default:false;index" json:"isArchived"`
	IsPublished bool       `gorm:"not null;default:false" json:"isPublished"`
	Tags        StringList `gorm:"type:text" json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (d *Document) TableName() string {
	return "documents"
}

// Clone returns a copy that shares no pointers with d.
func (d *Document) Clone() *Document {
	clone := *d
	if d.ParentID != nil {
		parent := *d.ParentID
		clone.ParentID = &parent
	}
	if d.Tags != nil {
		clone.Tags = append(StringList{}, d.Tags...)
	}

	return &clone
}

func (d *Document) MarshalBinary() ([]byte, error) {
	return json.Marshal(d)
}

// StringList is a list of ids stored as a json array column.
type StringList []string

// Value implements the driver.Valuer interface for database storage
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}

	return string(data), nil
}

// Scan implements the sql.Scanner interface for database retrieval
func (s *StringList) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*s = StringList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for string list")
	}

	if len(data) == 0 {
		*s = StringList{}
		return nil
	}

	return json.Unmarshal(data, (*[]string)(s))
}

// Contains reports whether id is in the list.
func (s StringList) Contains(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}

	return false
}

// Without returns a copy of the list with every occurrence of id removed.
func (s StringList) Without(id string) StringList {
	out := make(StringList, 0, len(s))
	for _, v := range s {
		if v != id {
			out = append(out, v)
		}
	}

	return out
}
