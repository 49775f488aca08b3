package handlers

import (
	"io"

	"recipe-vault/domain"
	"recipe-vault/internal/api/presenters"
	"recipe-vault/pkg/media"

	"github.com/gofiber/fiber/v2"
)

type (
	MediaHandler interface {
		UploadRecipeImage(c *fiber.Ctx) error
	}

	mediaHandler struct {
		mediaService media.MediaService
	}
)

func NewMediaHandler(mediaService media.MediaService) MediaHandler {
	return &mediaHandler{mediaService: mediaService}
}

func (h *mediaHandler) UploadRecipeImage(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	file, err := header.Open()
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	res, err := h.mediaService.UploadRecipeImage(c.Context(), data)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.StatusFor(err), domain.MessageFailedUploadImage, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessUploadImage)
}
