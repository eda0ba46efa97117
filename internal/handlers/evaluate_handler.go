package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-ats/internal/models"
	"alfredoptarigan/resume-ats/internal/repositories"
	"alfredoptarigan/resume-ats/internal/services"
)

type EvaluationHandler struct {
	analysisRepo repositories.AnalysisRepository
	docRepo      repositories.DocumentRepository
	worker       services.Worker
}

func NewEvaluationHandler(
	analysisRepo repositories.AnalysisRepository,
	docRepo repositories.DocumentRepository,
	worker services.Worker,
) *EvaluationHandler {
	return &EvaluationHandler{
		analysisRepo: analysisRepo,
		docRepo:      docRepo,
		worker:       worker,
	}
}

// HandleEvaluate handles POST /evaluate
func (h *EvaluationHandler) HandleEvaluate(c *fiber.Ctx) error {
	var req models.EvaluateRequest

	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	if err := req.Validate(); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, models.ValidationMessage(err))
	}

	docID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid document_id format")
	}

	doc, err := h.docRepo.FindByID(docID)
	if err != nil {
		status := statusFor(err)
		if status == fiber.StatusNotFound {
			return errorJSON(c, status, "Document not found")
		}
		return errorJSON(c, status, "Failed to load document")
	}

	analysis := &models.Analysis{
		ID:             uuid.New(),
		SessionID:      req.SessionID,
		DocumentID:     &doc.ID,
		FileName:       doc.OriginalFileName,
		FileType:       doc.FileType,
		FileSize:       doc.FileSize,
		JobDescription: req.JobDescription,
		UseAI:          req.UseAI,
		Status:         models.StatusQueued,
	}

	if err := h.analysisRepo.Create(analysis); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to create analysis job")
	}

	h.worker.EnqueueJob(analysis.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.EvaluateResponse{
		ID:     analysis.ID.String(),
		Status: string(models.StatusQueued),
	})
}
