package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Upload   *UploadHandler
	Evaluate *EvaluationHandler
	Result   *ResultHandler
	Analyze  *AnalyzeHandler
	Stats    *StatsHandler

	// AIEnabled is reported by the health check.
	AIEnabled bool
}

// Register mounts the API under router. Handlers left nil are not mounted.
func Register(router fiber.Router, h Handlers) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "healthy",
			"ai_enabled": h.AIEnabled,
			"time":       time.Now(),
		})
	})

	if h.Analyze != nil {
		router.Post("/analyze", h.Analyze.HandleAnalyze)
		router.Post("/match", h.Analyze.HandleMatch)
	}
	if h.Upload != nil {
		router.Post("/upload", h.Upload.HandleUpload)
	}
	if h.Evaluate != nil {
		router.Post("/evaluate", h.Evaluate.HandleEvaluate)
	}
	if h.Result != nil {
		router.Get("/result/:id", h.Result.HandleGetResult)
	}
	if h.Stats != nil {
		router.Get("/history", h.Stats.HandleHistory)
		router.Get("/stats", h.Stats.HandleStats)
		router.Post("/feedback", h.Stats.HandleFeedback)
	}
}
