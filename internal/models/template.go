package models

import (
	"time"

	"gorm.io/datatypes"
)

type Template struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:191;not null;uniqueIndex" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	FilePath     string         `gorm:"size:512;not null" json:"file_path"` // storage key, relative
	OriginalName string         `json:"original_name"`
	FileSize     int64          `json:"file_size"`
	MimeType     string         `json:"mime_type"`
	Placeholders datatypes.JSON `json:"placeholders"` // JSON array of placeholder keys
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	Documents []Document `gorm:"foreignKey:TemplateID;constraint:OnDelete:RESTRICT" json:"documents,omitempty"`
}

func (Template) TableName() string {
	return "templates"
}

// Document is one generation event. (TemplateID, Day, Sequence) is unique,
// which makes the same-day counter collision free.
type Document struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	TemplateID uint           `gorm:"not null;uniqueIndex:idx_generated_documents_sequence,priority:1" json:"template_id"`
	Day        string         `gorm:"size:6;not null;uniqueIndex:idx_generated_documents_sequence,priority:2" json:"day"` // YYMMDD
	Sequence   int            `gorm:"not null;uniqueIndex:idx_generated_documents_sequence,priority:3" json:"sequence"`
	Filename   string         `gorm:"size:255;not null" json:"filename"`
	FilePath   string         `gorm:"size:512;not null" json:"file_path"` // storage key, relative
	FileSize   int64          `json:"file_size"`
	MimeType   string         `json:"mime_type"`
	Data       datatypes.JSON `json:"data"` // submitted form values
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`

	Template *Template `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
}

func (Document) TableName() string {
	return "generated_documents"
}
