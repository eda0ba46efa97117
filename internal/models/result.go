package models

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type UploadResponse struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	FileType     string `json:"file_type"`
	FileSize     int64  `json:"file_size"`
}

type EvaluateRequest struct {
	DocumentID     string `json:"document_id" validate:"required,uuid"`
	JobDescription string `json:"job_description" validate:"max=50000"`
	UseAI          bool   `json:"use_ai"`
	SessionID      string `json:"session_id" validate:"max=128"`
}

func (r *EvaluateRequest) Validate() error {
	return validate.Struct(r)
}

type EvaluateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// MatchRequest needs a resume (inline text or an uploaded document) and a
// job description (inline text or a posting URL).
type MatchRequest struct {
	ResumeText     string `json:"resume_text" validate:"required_without=DocumentID"`
	DocumentID     string `json:"document_id" validate:"omitempty,uuid"`
	JobDescription string `json:"job_description" validate:"required_without=JobURL,max=50000"`
	JobURL         string `json:"job_url" validate:"omitempty,url"`
	UseAI          bool   `json:"use_ai"`
	SessionID      string `json:"session_id" validate:"max=128"`
}

func (r *MatchRequest) Validate() error {
	return validate.Struct(r)
}

type FeedbackRequest struct {
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	FeedbackText string `json:"feedback_text" validate:"max=5000"`
	FeatureUsed  string `json:"feature_used" validate:"required,max=64"`
	SessionID    string `json:"session_id" validate:"max=128"`
}

func (r *FeedbackRequest) Validate() error {
	return validate.Struct(r)
}

// DocumentSummary is the part of a ParsedDocument worth returning to clients.
type DocumentSummary struct {
	FileName             string   `json:"file_name"`
	FileType             FileType `json:"file_type"`
	FileSize             int64    `json:"file_size"`
	WordCount            int      `json:"word_count"`
	CharCount            int      `json:"char_count"`
	PageOrParagraphCount int      `json:"page_or_paragraph_count"`
	EmptyPages           []int    `json:"empty_pages,omitempty"`
}

func SummarizeDocument(doc *ParsedDocument) DocumentSummary {
	if doc == nil {
		return DocumentSummary{}
	}
	return DocumentSummary{
		FileName:             doc.FileName,
		FileType:             doc.FileType,
		FileSize:             doc.FileSize,
		WordCount:            doc.WordCount,
		CharCount:            doc.CharCount,
		PageOrParagraphCount: doc.PageOrParagraphCount,
		EmptyPages:           doc.EmptyPages,
	}
}

// AnalysisReport is everything one analysis produced. It is what gets stored
// in Analysis.ReportJSON and returned by the API.
type AnalysisReport struct {
	Document DocumentSummary `json:"document"`
	Contact  ContactInfo     `json:"contact"`
	Analysis *AnalysisResult `json:"analysis"`
	JobMatch *JobMatchResult `json:"job_match,omitempty"`
}

type AnalyzeResponse struct {
	ID           string          `json:"id,omitempty"`
	Report       *AnalysisReport `json:"report"`
	PersistError string          `json:"persist_error,omitempty"`
}

type ResultResponse struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	Result       *AnalysisReport `json:"result,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
}

// ValidationMessage flattens validator errors into one readable line.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+" failed '"+fe.Tag()+"'")
	}
	return strings.Join(parts, "; ")
}
