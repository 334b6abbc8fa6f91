package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shams-vision/internal/core/services"
	"shams-vision/internal/pkg/pagination"
	"shams-vision/internal/pkg/response"
)

// UploadHandler handles file upload endpoints
type UploadHandler struct {
	uploadService *services.UploadService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService *services.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload stores a multipart file in the object store
// @Summary Upload file
// @Description Upload a file (images, leave documents) to object storage
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Security BearerAuth
// @Success 201 {object} response.Response
// @Failure 413 {object} response.Response
// @Router /files [post]
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "File is required")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return response.BadRequest(c, "Failed to read file")
	}
	defer src.Close()

	file, err := h.uploadService.Upload(c.Context(), src, fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"), fileHeader.Size, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStorageDisabled):
			return response.Error(c, fiber.StatusServiceUnavailable, "File storage is not available")
		case errors.Is(err, services.ErrFileTooLarge):
			return response.Error(c, fiber.StatusRequestEntityTooLarge, "File exceeds the size limit")
		case errors.Is(err, services.ErrEmptyFile):
			return response.BadRequest(c, "File is empty")
		default:
			return response.InternalServerError(c, "Failed to upload file")
		}
	}

	return response.Created(c, "File uploaded", file)
}

// Get retrieves file metadata
// @Summary Get file
// @Description Get stored file metadata
// @Tags Files
// @Produce json
// @Param id path int true "File ID"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /files/{id} [get]
func (h *UploadHandler) Get(c *fiber.Ctx) error {
	fileID, err := c.ParamsInt("id")
	if err != nil || fileID <= 0 {
		return response.BadRequest(c, "Invalid file ID")
	}

	file, err := h.uploadService.GetFile(c.Context(), uint(fileID))
	if err != nil {
		if errors.Is(err, services.ErrFileNotFound) {
			return response.NotFound(c, "File not found")
		}
		return response.InternalServerError(c, "Failed to get file")
	}

	return response.Success(c, "File retrieved", file)
}

// DownloadURL issues a short-lived signed URL
// @Summary Get download URL
// @Description Issue a short-lived signed download URL for a file
// @Tags Files
// @Produce json
// @Param id path int true "File ID"
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /files/{id}/url [get]
func (h *UploadHandler) DownloadURL(c *fiber.Ctx) error {
	fileID, err := c.ParamsInt("id")
	if err != nil || fileID <= 0 {
		return response.BadRequest(c, "Invalid file ID")
	}

	url, err := h.uploadService.SignedURL(c.Context(), uint(fileID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFileNotFound):
			return response.NotFound(c, "File not found")
		case errors.Is(err, services.ErrStorageDisabled):
			return response.Error(c, fiber.StatusServiceUnavailable, "File storage is not available")
		default:
			return response.InternalServerError(c, "Failed to sign URL")
		}
	}

	return response.Success(c, "Download URL issued", fiber.Map{"url": url})
}

// List retrieves the current user's uploads
// @Summary List files
// @Description List files uploaded by the current user
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /files [get]
func (h *UploadHandler) List(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)

	files, total, err := h.uploadService.ListFiles(c.Context(), userID, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list files")
	}

	return response.Success(c, "Files retrieved", pagination.NewResponse(files, params, total))
}
