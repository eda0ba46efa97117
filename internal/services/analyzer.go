package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/logger"
	"alfredoptarigan/resume-ats/internal/models"
	"alfredoptarigan/resume-ats/internal/repositories"
)

// Feature names recorded as usage events.
const (
	FeatureAnalyze  = "analyze"
	FeatureMatch    = "match"
	FeatureEvaluate = "evaluate"
)

type AnalyzeInput struct {
	Data           []byte
	FileName       string
	JobDescription string
	JobURL         string
	UseAI          bool
	SessionID      string
}

type MatchInput struct {
	ResumeText     string
	DocumentID     *uuid.UUID
	JobDescription string
	JobURL         string
	UseAI          bool
	SessionID      string
}

// AnalysisOutcome is the result of one synchronous analysis. PersistError is
// set when the report could not be stored; the report is still valid.
type AnalysisOutcome struct {
	Document     *models.ParsedDocument
	Report       *models.AnalysisReport
	RecordID     *uuid.UUID
	PersistError error
}

type AnalyzerService interface {
	Analyze(ctx context.Context, in AnalyzeInput) (*AnalysisOutcome, error)
	Match(ctx context.Context, in MatchInput) (*models.JobMatchResult, error)
	MatchText(ctx context.Context, resumeText, jobDescription string, useAI bool) *models.JobMatchResult
	ProcessAnalysis(ctx context.Context, id uuid.UUID) error
}

type analyzerService struct {
	extractor    DocumentExtractor
	augmenter    Augmenter
	fetcher      JobFetcher
	analysisRepo repositories.AnalysisRepository
	docRepo      repositories.DocumentRepository
	feedbackRepo repositories.FeedbackRepository
	logger       *zap.Logger
}

// NewAnalyzerService wires the analysis pipeline. Everything except extractor
// may be nil: without an augmenter the heuristic result is always used, and
// without repositories nothing is stored.
func NewAnalyzerService(
	extractor DocumentExtractor,
	augmenter Augmenter,
	fetcher JobFetcher,
	analysisRepo repositories.AnalysisRepository,
	docRepo repositories.DocumentRepository,
	feedbackRepo repositories.FeedbackRepository,
	log *zap.Logger,
) AnalyzerService {
	return &analyzerService{
		extractor:    extractor,
		augmenter:    augmenter,
		fetcher:      fetcher,
		analysisRepo: analysisRepo,
		docRepo:      docRepo,
		feedbackRepo: feedbackRepo,
		logger:       logger.OrNop(log),
	}
}

func (s *analyzerService) Analyze(ctx context.Context, in AnalyzeInput) (*AnalysisOutcome, error) {
	log := s.logger.With(zap.String("file", in.FileName), zap.String(logger.FieldSession, in.SessionID))

	doc, err := s.extractor.Extract(in.Data, in.FileName)
	if err != nil {
		log.Info("extraction failed", zap.Error(err))
		return nil, err
	}

	jobDescription, err := s.resolveJobDescription(ctx, in.JobDescription, in.JobURL)
	if err != nil {
		return nil, err
	}

	report := s.evaluate(ctx, doc, jobDescription, in.UseAI)
	outcome := &AnalysisOutcome{Document: doc, Report: report}

	if s.analysisRepo != nil {
		record, err := newAnalysisRecord(doc, report, jobDescription, in)
		if err == nil {
			err = s.analysisRepo.Create(record)
		}
		if err != nil {
			outcome.PersistError = fmt.Errorf("%w: %w", ErrPersistence, err)
			log.Warn("⚠️ analysis not saved", zap.Error(err))
		} else {
			id := record.ID
			outcome.RecordID = &id
		}
	}

	s.logUsage(FeatureAnalyze, "upload", in.SessionID)

	log.Info("✅ analysis completed",
		zap.Int("overall_score", report.Analysis.OverallScore),
		zap.String("source", string(report.Analysis.Source)),
	)
	return outcome, nil
}

func (s *analyzerService) Match(ctx context.Context, in MatchInput) (*models.JobMatchResult, error) {
	resumeText := in.ResumeText
	if strings.TrimSpace(resumeText) == "" && in.DocumentID != nil {
		doc, err := s.loadDocument(*in.DocumentID)
		if err != nil {
			return nil, err
		}
		resumeText = doc.NormalizedText
	}
	if strings.TrimSpace(resumeText) == "" {
		return nil, fmt.Errorf("%w: resume text is empty", ErrEmptyExtraction)
	}

	jobDescription, err := s.resolveJobDescription(ctx, in.JobDescription, in.JobURL)
	if err != nil {
		return nil, err
	}

	result := s.MatchText(ctx, resumeText, jobDescription, in.UseAI)
	s.logUsage(FeatureMatch, "compare", in.SessionID)
	return result, nil
}

// MatchText runs the heuristic matcher and, when asked, lets the augmenter
// replace its result. It never fails.
func (s *analyzerService) MatchText(ctx context.Context, resumeText, jobDescription string, useAI bool) *models.JobMatchResult {
	result := Match(resumeText, jobDescription)
	if !useAI || s.augmenter == nil || len(strings.Fields(jobDescription)) < MinJobDescriptionWords {
		return result
	}

	ai, err := s.augmenter.AugmentMatch(ctx, resumeText, jobDescription, result)
	if err != nil {
		s.logger.Warn("⚠️ using heuristic job match", zap.Error(err))
		return result
	}
	return ai
}

// ProcessAnalysis runs a queued analysis of an uploaded document.
func (s *analyzerService) ProcessAnalysis(ctx context.Context, id uuid.UUID) error {
	if s.analysisRepo == nil {
		return errors.New("analysis repository is not configured")
	}

	if err := s.analysisRepo.UpdateStatus(id, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	s.logger.Info("🔄 processing queued analysis", zap.Stringer("analysis_id", id))

	analysis, err := s.analysisRepo.FindByID(id)
	if err != nil {
		return s.fail(id, fmt.Errorf("failed to get analysis: %w", err))
	}
	if analysis.DocumentID == nil {
		return s.fail(id, errors.New("analysis has no document"))
	}

	doc, err := s.loadDocument(*analysis.DocumentID)
	if err != nil {
		return s.fail(id, err)
	}

	report := s.evaluate(ctx, doc, analysis.JobDescription, analysis.UseAI)
	data, err := updateDataFor(doc, report)
	if err != nil {
		return s.fail(id, err)
	}

	if err := s.analysisRepo.UpdateResult(id, data); err != nil {
		return s.fail(id, fmt.Errorf("failed to save results: %w", err))
	}

	s.logUsage(FeatureEvaluate, "queued", analysis.SessionID)
	s.logger.Info("✅ queued analysis completed", zap.Stringer("analysis_id", id))
	return nil
}

func (s *analyzerService) fail(id uuid.UUID, err error) error {
	if updateErr := s.analysisRepo.UpdateError(id, err.Error()); updateErr != nil {
		s.logger.Error("failed to record analysis error", zap.Stringer("analysis_id", id), zap.Error(updateErr))
	}
	return err
}

// evaluate runs contact extraction, scoring and the optional job match over
// an extracted document.
func (s *analyzerService) evaluate(ctx context.Context, doc *models.ParsedDocument, jobDescription string, useAI bool) *models.AnalysisReport {
	text := doc.NormalizedText
	if text == "" {
		text = doc.RawText
	}

	contact := ExtractContactInfo(doc)
	analysis := Score(text, contact, MetaFromDocument(doc), jobDescription)

	if useAI && s.augmenter != nil {
		ai, err := s.augmenter.AugmentAnalysis(ctx, text, analysis)
		if err != nil {
			s.logger.Warn("⚠️ using heuristic analysis", zap.Error(err))
		} else {
			analysis = ai
		}
	}

	report := &models.AnalysisReport{
		Document: models.SummarizeDocument(doc),
		Contact:  contact,
		Analysis: analysis,
	}
	if strings.TrimSpace(jobDescription) != "" {
		report.JobMatch = s.MatchText(ctx, text, jobDescription, useAI)
	}
	return report
}

func (s *analyzerService) resolveJobDescription(ctx context.Context, jobDescription, jobURL string) (string, error) {
	if strings.TrimSpace(jobDescription) != "" || strings.TrimSpace(jobURL) == "" {
		return jobDescription, nil
	}
	if s.fetcher == nil {
		return "", fmt.Errorf("%w: fetching is not enabled", ErrJobFetch)
	}
	return s.fetcher.FetchJobDescription(ctx, jobURL)
}

func (s *analyzerService) loadDocument(id uuid.UUID) (*models.ParsedDocument, error) {
	if s.docRepo == nil {
		return nil, errors.New("document repository is not configured")
	}

	stored, err := s.docRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	doc, err := s.extractor.ExtractFile(stored.FilePath)
	if err != nil {
		return nil, err
	}
	doc.FileName = stored.OriginalFileName
	return doc, nil
}

func (s *analyzerService) logUsage(feature, action, sessionID string) {
	if s.feedbackRepo == nil {
		return
	}
	if err := s.feedbackRepo.LogUsage(feature, action, sessionID); err != nil {
		s.logger.Debug("usage event dropped", zap.String("feature", feature), zap.Error(err))
	}
}

func newAnalysisRecord(doc *models.ParsedDocument, report *models.AnalysisReport, jobDescription string, in AnalyzeInput) (*models.Analysis, error) {
	data, err := updateDataFor(doc, report)
	if err != nil {
		return nil, err
	}

	record := &models.Analysis{
		SessionID:      in.SessionID,
		FileName:       doc.FileName,
		FileType:       doc.FileType,
		FileSize:       doc.FileSize,
		WordCount:      doc.WordCount,
		JobDescription: jobDescription,
		UseAI:          in.UseAI,
		Status:         models.StatusCompleted,
		Source:         data.Source,
		OverallScore:   intPtr(data.Overall),
		MatchScore:     data.MatchScore,
		ReportJSON:     data.ReportJSON,
	}
	record.FormatScore = scorePtr(data.Scores, models.CategoryFormat)
	record.KeywordScore = scorePtr(data.Scores, models.CategoryKeywords)
	record.ContactScore = scorePtr(data.Scores, models.CategoryContact)
	record.SectionScore = scorePtr(data.Scores, models.CategorySections)
	record.LengthScore = scorePtr(data.Scores, models.CategoryLength)
	record.ReadabilityScore = scorePtr(data.Scores, models.CategoryReadability)
	return record, nil
}

func updateDataFor(doc *models.ParsedDocument, report *models.AnalysisReport) (*repositories.AnalysisUpdateData, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	scores := make(map[models.Category]int, len(report.Analysis.Categories))
	for name, cs := range report.Analysis.Categories {
		if cs != nil {
			scores[name] = cs.Score
		}
	}

	data := &repositories.AnalysisUpdateData{
		Source:     report.Analysis.Source,
		WordCount:  doc.WordCount,
		Scores:     scores,
		Overall:    report.Analysis.OverallScore,
		ReportJSON: string(raw),
	}
	if report.JobMatch != nil {
		data.MatchScore = intPtr(report.JobMatch.MatchScore)
	}
	return data, nil
}

func scorePtr(scores map[models.Category]int, c models.Category) *int {
	if v, ok := scores[c]; ok {
		return &v
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}
