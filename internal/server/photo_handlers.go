package server

import (
	"io"
	"strings"

	"dailybright/internal/models"
	"dailybright/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PhotoUploadResponse is the API response after uploading a photo.
type PhotoUploadResponse struct {
	ID        uint   `json:"id"`
	Bucket    string `json:"bucket"`
	Hash      string `json:"hash"`
	URL       string `json:"url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int64  `json:"size_bytes"`
	MimeType  string `json:"mime_type"`
}

// UploadPhoto handles POST /api/photos
// @Summary Upload a photo
// @Description Stores an image as WebP and returns the URL to pass as photo_url
// @Tags photos
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Param bucket formData string false "entries or profiles"
// @Success 200 {object} object{success=bool,photo=PhotoUploadResponse}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /photos [post]
func (s *Server) UploadPhoto(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}
	if file.Size > s.photoService.MaxUploadBytes() {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("File too large"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	bucket := strings.ToLower(strings.TrimSpace(c.FormValue("bucket")))
	if bucket == "" {
		bucket = models.PhotoBucketEntries
	}

	photo, err := s.photoService.Upload(c.UserContext(), service.UploadPhotoInput{
		UserID:  sessionUserID(c),
		Bucket:  bucket,
		Content: content,
	})
	if err != nil {
		return respondErr(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"photo": PhotoUploadResponse{
			ID:        photo.ID,
			Bucket:    photo.Bucket,
			Hash:      photo.Hash,
			URL:       s.photoService.PublicURL(photo),
			Width:     photo.Width,
			Height:    photo.Height,
			SizeBytes: photo.SizeBytes,
			MimeType:  photo.ContentType,
		},
	})
}
