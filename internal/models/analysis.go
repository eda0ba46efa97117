package models

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisStatus string

const (
	StatusQueued     AnalysisStatus = "queued"
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

// Analysis is one persisted analysis run. Synchronous runs are stored already
// completed; queued runs are picked up by the worker.
type Analysis struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SessionID      string         `gorm:"type:text;index" json:"session_id,omitempty"`
	DocumentID     *uuid.UUID     `gorm:"type:uuid" json:"document_id,omitempty"`
	FileName       string         `gorm:"type:text" json:"file_name"`
	FileType       FileType       `gorm:"type:text;index" json:"file_type"`
	FileSize       int64          `json:"file_size"`
	WordCount      int            `json:"word_count"`
	JobDescription string         `gorm:"type:text" json:"job_description,omitempty"`
	UseAI          bool           `json:"use_ai"`
	Status         AnalysisStatus `gorm:"not null;default:'queued';index" json:"status"`
	Source         AnalysisSource `gorm:"type:text" json:"source,omitempty"`

	OverallScore     *int `json:"overall_score,omitempty"`
	FormatScore      *int `json:"format_compatibility,omitempty"`
	KeywordScore     *int `json:"keyword_optimization,omitempty"`
	ContactScore     *int `json:"contact_information,omitempty"`
	SectionScore     *int `json:"section_organization,omitempty"`
	LengthScore      *int `json:"length_optimization,omitempty"`
	ReadabilityScore *int `json:"readability,omitempty"`
	MatchScore       *int `json:"match_score,omitempty"`

	ReportJSON   string    `gorm:"type:text" json:"-"`
	ErrorMessage *string   `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Document *Document `gorm:"foreignKey:DocumentID" json:"-"`
}

func (Analysis) TableName() string {
	return "analyses"
}

// Feedback is a user rating of one feature.
type Feedback struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Rating      int       `gorm:"not null" json:"rating"`
	Text        string    `gorm:"type:text" json:"feedback_text"`
	FeatureUsed string    `gorm:"type:text" json:"feature_used"`
	SessionID   string    `gorm:"type:text" json:"session_id,omitempty"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Feedback) TableName() string {
	return "feedback"
}

// UsageEvent records that a feature was used. Writes are best-effort.
type UsageEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Feature   string    `gorm:"type:text;index" json:"feature"`
	Action    string    `gorm:"type:text" json:"action"`
	SessionID string    `gorm:"type:text" json:"session_id,omitempty"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (UsageEvent) TableName() string {
	return "usage_events"
}
