package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/logger"
	"alfredoptarigan/resume-ats/internal/models"
	"alfredoptarigan/resume-ats/internal/repositories"
	"alfredoptarigan/resume-ats/internal/services"
)

// resumeField is the multipart field carrying the resume file.
const resumeField = "resume"

type UploadHandler struct {
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	logger         *zap.Logger
}

func NewUploadHandler(
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	log *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		docRepo:        docRepo,
		storageService: storageService,
		logger:         logger.OrNop(log),
	}
}

// HandleUpload handles POST /upload. The stored document can later be queued
// with POST /evaluate or matched with POST /match.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile(resumeField)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "No resume uploaded. Send a PDF, DOCX or TXT file in the 'resume' field.")
	}

	fileType, err := services.FileTypeFromName(file.Filename)
	if err != nil {
		return errorJSON(c, statusFor(err), err.Error())
	}

	filename, filePath, err := h.storageService.SaveFile(file)
	if err != nil {
		return errorJSON(c, statusFor(err), fmt.Sprintf("failed to save resume: %v", err))
	}

	doc := models.Document{
		ID:               uuid.New(),
		Filename:         filename,
		OriginalFileName: file.Filename,
		FileType:         fileType,
		FileSize:         file.Size,
		FilePath:         filePath,
		SessionID:        c.FormValue("session_id"),
	}

	if err := h.docRepo.Create(&doc); err != nil {
		if delErr := h.storageService.DeleteFile(filename); delErr != nil {
			h.logger.Warn("⚠️ failed to remove orphaned upload", zap.String("file", filename), zap.Error(delErr))
		}
		return errorJSON(c, fiber.StatusInternalServerError, fmt.Sprintf("failed to save document record: %v", err))
	}

	h.logger.Info("📄 resume uploaded", zap.Stringer("document_id", doc.ID), zap.String("file_type", string(fileType)))

	return c.Status(fiber.StatusCreated).JSON(models.UploadResponse{
		ID:           doc.ID.String(),
		Filename:     doc.Filename,
		OriginalName: doc.OriginalFileName,
		FileType:     string(doc.FileType),
		FileSize:     doc.FileSize,
	})
}
