package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"alfredoptarigan/resume-ats/internal/models"
)

type FeedbackRepository interface {
	Create(feedback *models.Feedback) error
	AverageRating(since time.Time) (float64, error)
	LogUsage(feature, action, sessionID string) error
	FeatureUsage(since time.Time) ([]models.FeatureUsage, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(feedback *models.Feedback) error {
	if err := r.db.Create(feedback).Error; err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

func (r *feedbackRepository) AverageRating(since time.Time) (float64, error) {
	var avg sql.NullFloat64
	err := r.db.Model(&models.Feedback{}).
		Where("created_at >= ?", since).
		Select("AVG(rating)").
		Row().Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to average ratings: %w", err)
	}
	return avg.Float64, nil
}

func (r *feedbackRepository) LogUsage(feature, action, sessionID string) error {
	event := &models.UsageEvent{
		Feature:   feature,
		Action:    action,
		SessionID: sessionID,
	}
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to log usage: %w", err)
	}
	return nil
}

func (r *feedbackRepository) FeatureUsage(since time.Time) ([]models.FeatureUsage, error) {
	usage := []models.FeatureUsage{}
	err := r.db.Model(&models.UsageEvent{}).
		Where("created_at >= ?", since).
		Select("feature, COUNT(*) AS count").
		Group("feature").
		Order("count DESC, feature ASC").
		Scan(&usage).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load feature usage: %w", err)
	}
	return usage, nil
}
