package api

import (
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/wingman2025/birdtarifa/internal/errors"
	"github.com/wingman2025/birdtarifa/internal/photostore"
)

// PhotoUploadOut describes a stored photo.
type PhotoUploadOut struct {
	PhotoURL    string `json:"photo_url"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	SizeBytes   int    `json:"size_bytes"`
}

// PhotoDeleteIn names the stored photo to remove.
type PhotoDeleteIn struct {
	Key string `json:"key"`
}

// PhotoDeleteOut confirms a deletion.
type PhotoDeleteOut struct {
	Deleted bool `json:"deleted"`
}

// UploadPhoto accepts a multipart image upload. Unsupported types answer
// 415, an empty payload 400 and an oversized one 413.
func (c *Controller) UploadPhoto(ctx echo.Context) error {
	if c.Photos == nil {
		return c.HandleError(ctx, errors.Newf("photo storage is not configured").
			Component("api").
			Category(errors.CategoryConfiguration).
			Build(), "Photo storage unavailable", 0)
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return c.HandleError(ctx, errors.Newf("missing file field: %v", err).
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Missing file", 0)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	if !photostore.AllowedContentType(contentType) {
		return c.HandleError(ctx, errors.Newf("unsupported image type, use jpeg, png or webp").
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Unsupported image type", http.StatusUnsupportedMediaType)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.HandleError(ctx, errors.Newf("opening upload: %v", err).
			Component("api").
			Category(errors.CategoryFileIO).
			Build(), "Failed to read upload", 0)
	}
	defer func() {
		_ = file.Close()
	}()

	maxBytes := int64(c.Settings.Media.MaxUploadMB) * 1024 * 1024
	payload, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return c.HandleError(ctx, errors.Newf("reading upload: %v", err).
			Component("api").
			Category(errors.CategoryFileIO).
			Build(), "Failed to read upload", 0)
	}
	if len(payload) == 0 {
		return c.HandleError(ctx, errors.Newf("empty file payload").
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Empty file", 0)
	}
	if int64(len(payload)) > maxBytes {
		return c.HandleError(ctx, errors.Newf("file exceeds %dMB limit", c.Settings.Media.MaxUploadMB).
			Component("api").
			Category(errors.CategoryLimit).
			Build(), "File too large", http.StatusRequestEntityTooLarge)
	}

	key, err := photostore.BuildPhotoKey(contentType)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to build photo key", 0)
	}
	photoURL, err := c.Photos.Upload(key, payload)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to store photo", 0)
	}

	return ctx.JSON(http.StatusOK, PhotoUploadOut{
		PhotoURL:    photoURL,
		Key:         key,
		ContentType: contentType,
		SizeBytes:   len(payload),
	})
}

func (c *Controller) DeletePhoto(ctx echo.Context) error {
	if c.Photos == nil {
		return c.HandleError(ctx, errors.Newf("photo storage is not configured").
			Component("api").
			Category(errors.CategoryConfiguration).
			Build(), "Photo storage unavailable", 0)
	}

	var payload PhotoDeleteIn
	if err := ctx.Bind(&payload); err != nil {
		return c.HandleError(ctx, errors.Newf("invalid request body: %v", err).
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Invalid request body", 0)
	}
	if strings.TrimSpace(payload.Key) == "" {
		return c.HandleError(ctx, errors.Newf("key is required").
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Missing key", 0)
	}

	if err := c.Photos.Delete(payload.Key); err != nil {
		return c.HandleError(ctx, err, "Failed to delete photo", 0)
	}
	return ctx.JSON(http.StatusOK, PhotoDeleteOut{Deleted: true})
}
