package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-ats/internal/models"
)

type AnalysisRepository interface {
	Create(analysis *models.Analysis) error
	FindByID(id uuid.UUID) (*models.Analysis, error)
	UpdateStatus(id uuid.UUID, status models.AnalysisStatus) error
	UpdateResult(id uuid.UUID, data *AnalysisUpdateData) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingJobs(limit int) ([]models.Analysis, error)
	FindRecent(limit int) ([]models.Analysis, error)

	Count(since time.Time) (int64, error)
	AverageScore(since time.Time) (float64, error)
	ScoreTrend(since time.Time) ([]models.DailyScore, error)
	CategoryAverages(since time.Time) (map[models.Category]float64, error)
	FileTypeStats(since time.Time) ([]models.FileTypeStat, error)
}

// AnalysisUpdateData is what a finished analysis writes back to its row.
type AnalysisUpdateData struct {
	Source     models.AnalysisSource
	WordCount  int
	Scores     map[models.Category]int
	Overall    int
	MatchScore *int
	ReportJSON string
}

// categoryColumns maps each category to its score column.
var categoryColumns = map[models.Category]string{
	models.CategoryFormat:      "format_score",
	models.CategoryKeywords:    "keyword_score",
	models.CategoryContact:     "contact_score",
	models.CategorySections:    "section_score",
	models.CategoryLength:      "length_score",
	models.CategoryReadability: "readability_score",
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(analysis *models.Analysis) error {
	if err := r.db.Create(analysis).Error; err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

func (r *analysisRepository) FindByID(id uuid.UUID) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := r.db.Where("id = ?", id).First(&analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	return &analysis, nil
}

func (r *analysisRepository) UpdateStatus(id uuid.UUID, status models.AnalysisStatus) error {
	return r.update(id, map[string]any{
		"status": status,
	})
}

func (r *analysisRepository) UpdateResult(id uuid.UUID, data *AnalysisUpdateData) error {
	updates := map[string]any{
		"status":        models.StatusCompleted,
		"source":        data.Source,
		"word_count":    data.WordCount,
		"overall_score": data.Overall,
		"report_json":   data.ReportJSON,
		"error_message": nil,
	}
	for category, score := range data.Scores {
		if column, ok := categoryColumns[category]; ok {
			updates[column] = score
		}
	}
	if data.MatchScore != nil {
		updates["match_score"] = *data.MatchScore
	}

	return r.update(id, updates)
}

func (r *analysisRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	return r.update(id, map[string]any{
		"status":        models.StatusFailed,
		"error_message": errorMsg,
	})
}

func (r *analysisRepository) update(id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now()

	result := r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update analysis: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}

	return nil
}

func (r *analysisRepository) FindPendingJobs(limit int) ([]models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&analyses).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return analyses, nil
}

// FindRecent returns the newest completed analyses first.
func (r *analysisRepository) FindRecent(limit int) ([]models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.
		Where("status = ?", models.StatusCompleted).
		Order("created_at DESC").
		Limit(limit).
		Find(&analyses).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find recent analyses: %w", err)
	}

	return analyses, nil
}

// completedSince scopes queries to completed analyses created at or after since.
func (r *analysisRepository) completedSince(since time.Time) *gorm.DB {
	return r.db.Model(&models.Analysis{}).
		Where("status = ? AND created_at >= ?", models.StatusCompleted, since)
}

func (r *analysisRepository) Count(since time.Time) (int64, error) {
	var n int64
	if err := r.completedSince(since).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return n, nil
}

func (r *analysisRepository) AverageScore(since time.Time) (float64, error) {
	var avg sql.NullFloat64
	if err := r.completedSince(since).Select("AVG(overall_score)").Row().Scan(&avg); err != nil {
		return 0, fmt.Errorf("failed to average scores: %w", err)
	}
	return avg.Float64, nil
}

func (r *analysisRepository) ScoreTrend(since time.Time) ([]models.DailyScore, error) {
	trend := []models.DailyScore{}
	err := r.completedSince(since).
		Select("TO_CHAR(DATE(created_at), 'YYYY-MM-DD') AS date, AVG(overall_score) AS average_score, COUNT(*) AS analysis_count").
		Group("DATE(created_at)").
		Order("DATE(created_at) ASC").
		Scan(&trend).Error

	if err != nil {
		return nil, fmt.Errorf("failed to load score trend: %w", err)
	}
	return trend, nil
}

func (r *analysisRepository) CategoryAverages(since time.Time) (map[models.Category]float64, error) {
	selects := make([]string, 0, len(models.Categories))
	for _, category := range models.Categories {
		selects = append(selects, fmt.Sprintf("AVG(%s)", categoryColumns[category]))
	}

	averages := make([]sql.NullFloat64, len(models.Categories))
	dest := make([]any, len(averages))
	for i := range averages {
		dest[i] = &averages[i]
	}

	if err := r.completedSince(since).Select(strings.Join(selects, ", ")).Row().Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to average categories: %w", err)
	}

	result := make(map[models.Category]float64, len(models.Categories))
	for i, category := range models.Categories {
		result[category] = averages[i].Float64
	}
	return result, nil
}

func (r *analysisRepository) FileTypeStats(since time.Time) ([]models.FileTypeStat, error) {
	stats := []models.FileTypeStat{}
	err := r.completedSince(since).
		Select("file_type, COUNT(*) AS count, COALESCE(AVG(overall_score), 0) AS average_score").
		Group("file_type").
		Order("count DESC, file_type ASC").
		Scan(&stats).Error

	if err != nil {
		return nil, fmt.Errorf("failed to load file type stats: %w", err)
	}
	return stats, nil
}
