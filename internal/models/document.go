package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded resume file kept on disk for later analysis.
type Document struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Filename         string    `gorm:"type:text" json:"filename"`
	OriginalFileName string    `gorm:"type:text" json:"original_filename"`
	FileType         FileType  `gorm:"type:text" json:"file_type"`
	FileSize         int64     `json:"file_size"`
	FilePath         string    `gorm:"type:text" json:"file_path"`
	SessionID        string    `gorm:"type:text;index" json:"session_id,omitempty"`
	CreatedAt        time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt        time.Time `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (d *Document) TableName() string {
	return "documents"
}
