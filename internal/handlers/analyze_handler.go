package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/logger"
	"alfredoptarigan/resume-ats/internal/models"
	"alfredoptarigan/resume-ats/internal/services"
)

// maxJobDescriptionChars bounds the job_description form field.
const maxJobDescriptionChars = 50000

type AnalyzeHandler struct {
	analyzer       services.AnalyzerService
	storageService services.StorageService
	logger         *zap.Logger
}

func NewAnalyzeHandler(
	analyzer services.AnalyzerService,
	storageService services.StorageService,
	log *zap.Logger,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer:       analyzer,
		storageService: storageService,
		logger:         logger.OrNop(log),
	}
}

// HandleAnalyze handles POST /analyze. The file is analyzed in memory and
// never written to the upload directory.
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	file, err := c.FormFile(resumeField)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "No resume uploaded. Send a PDF, DOCX or TXT file in the 'resume' field.")
	}

	jobDescription := c.FormValue("job_description")
	if len(jobDescription) > maxJobDescriptionChars {
		return errorJSON(c, fiber.StatusBadRequest, "job_description is too long")
	}

	useAI, _ := strconv.ParseBool(c.FormValue("use_ai"))

	data, err := h.storageService.ReadUpload(file)
	if err != nil {
		return errorJSON(c, statusFor(err), err.Error())
	}

	outcome, err := h.analyzer.Analyze(c.UserContext(), services.AnalyzeInput{
		Data:           data,
		FileName:       file.Filename,
		JobDescription: jobDescription,
		JobURL:         c.FormValue("job_url"),
		UseAI:          useAI,
		SessionID:      c.FormValue("session_id"),
	})
	if err != nil {
		return errorJSON(c, statusFor(err), err.Error())
	}

	response := models.AnalyzeResponse{Report: outcome.Report}
	if outcome.RecordID != nil {
		response.ID = outcome.RecordID.String()
	}
	if outcome.PersistError != nil {
		response.PersistError = "analysis was not saved to history"
	}

	return c.JSON(response)
}

// HandleMatch handles POST /match
func (h *AnalyzeHandler) HandleMatch(c *fiber.Ctx) error {
	var req models.MatchRequest

	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	if err := req.Validate(); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, models.ValidationMessage(err))
	}

	in := services.MatchInput{
		ResumeText:     req.ResumeText,
		JobDescription: req.JobDescription,
		JobURL:         req.JobURL,
		UseAI:          req.UseAI,
		SessionID:      req.SessionID,
	}
	if req.DocumentID != "" {
		docID, err := uuid.Parse(req.DocumentID)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid document_id format")
		}
		in.DocumentID = &docID
	}

	result, err := h.analyzer.Match(c.UserContext(), in)
	if err != nil {
		return errorJSON(c, statusFor(err), err.Error())
	}

	return c.JSON(result)
}
