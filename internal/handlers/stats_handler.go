package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/logger"
	"alfredoptarigan/resume-ats/internal/models"
	"alfredoptarigan/resume-ats/internal/repositories"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	defaultStatsDays    = 30
	maxStatsDays        = 365
)

type StatsHandler struct {
	analysisRepo repositories.AnalysisRepository
	feedbackRepo repositories.FeedbackRepository
	logger       *zap.Logger
	now          func() time.Time
}

func NewStatsHandler(
	analysisRepo repositories.AnalysisRepository,
	feedbackRepo repositories.FeedbackRepository,
	log *zap.Logger,
) *StatsHandler {
	return &StatsHandler{
		analysisRepo: analysisRepo,
		feedbackRepo: feedbackRepo,
		logger:       logger.OrNop(log),
		now:          time.Now,
	}
}

// HandleHistory handles GET /history?limit=N
func (h *StatsHandler) HandleHistory(c *fiber.Ctx) error {
	limit := clampQuery(c.QueryInt("limit", defaultHistoryLimit), defaultHistoryLimit, maxHistoryLimit)

	analyses, err := h.analysisRepo.FindRecent(limit)
	if err != nil {
		h.logger.Error("❌ failed to load history", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load history")
	}
	if analyses == nil {
		analyses = []models.Analysis{}
	}

	return c.JSON(fiber.Map{
		"analyses": analyses,
		"count":    len(analyses),
	})
}

// HandleStats handles GET /stats?days=N
func (h *StatsHandler) HandleStats(c *fiber.Ctx) error {
	days := clampQuery(c.QueryInt("days", defaultStatsDays), defaultStatsDays, maxStatsDays)
	since := h.now().AddDate(0, 0, -days)

	stats, err := h.collect(since)
	if err != nil {
		h.logger.Error("❌ failed to load stats", zap.Int("days", days), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load statistics")
	}

	return c.JSON(stats)
}

func (h *StatsHandler) collect(since time.Time) (*models.StatsResponse, error) {
	var (
		stats models.StatsResponse
		err   error
	)

	if stats.TotalAnalyses, err = h.analysisRepo.Count(time.Time{}); err != nil {
		return nil, err
	}
	if stats.RecentAnalyses, err = h.analysisRepo.Count(since); err != nil {
		return nil, err
	}
	if stats.AverageScore, err = h.analysisRepo.AverageScore(since); err != nil {
		return nil, err
	}
	if stats.ScoreTrend, err = h.analysisRepo.ScoreTrend(since); err != nil {
		return nil, err
	}
	if stats.CategoryAverages, err = h.analysisRepo.CategoryAverages(since); err != nil {
		return nil, err
	}
	if stats.FileTypes, err = h.analysisRepo.FileTypeStats(since); err != nil {
		return nil, err
	}
	if stats.FeatureUsage, err = h.feedbackRepo.FeatureUsage(since); err != nil {
		return nil, err
	}
	if stats.AverageRating, err = h.feedbackRepo.AverageRating(since); err != nil {
		return nil, err
	}

	return &stats, nil
}

// HandleFeedback handles POST /feedback
func (h *StatsHandler) HandleFeedback(c *fiber.Ctx) error {
	var req models.FeedbackRequest

	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	if err := req.Validate(); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, models.ValidationMessage(err))
	}

	feedback := &models.Feedback{
		Rating:      req.Rating,
		Text:        req.FeedbackText,
		FeatureUsed: req.FeatureUsed,
		SessionID:   req.SessionID,
	}

	if err := h.feedbackRepo.Create(feedback); err != nil {
		h.logger.Error("❌ failed to save feedback", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to save feedback")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Thank you for your feedback",
		"id":      feedback.ID.String(),
	})
}

func clampQuery(v, fallback, max int) int {
	if v < 1 {
		return fallback
	}
	if v > max {
		return max
	}
	return v
}
