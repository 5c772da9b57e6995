package server

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"minato/internal/models"
	"minato/internal/storage"

	"github.com/gofiber/fiber/v2"
)

const maxUploadBytes = 8 << 20 // 8 MiB

// UploadMedia handles POST /api/media. Uploads are normalized to WebP before
// they reach object storage; the public link is returned and attaching it to
// a post is a separate call.
func (s *Server) UploadMedia(c *fiber.Ctx) error {
	if s.storage == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(fiber.ErrServiceUnavailable))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("file is required"))
	}
	if fileHeader.Size > maxUploadBytes {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("file exceeds the 8 MiB limit"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondServiceError(c, err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return respondServiceError(c, err)
	}
	normalized, err := storage.NormalizeImage(raw)
	if err != nil {
		return respondServiceError(c, err)
	}

	name := strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename)) + ".webp"
	objectName, link, err := s.storage.Upload(c.UserContext(), viewerID(c),
		name, bytes.NewReader(normalized), int64(len(normalized)))
	if err != nil {
		return respondServiceError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusCreated, fiber.Map{
		"object_name": objectName,
		"link":        link,
	})
}
