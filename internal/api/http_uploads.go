package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/storage"
	"storefront/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	uploadCategory    = "images"
	uploadFormField   = "image"
	uploadTimeout     = 30 * time.Second
	defaultUploadSize = 5 << 20
)

type imageUploadRequest struct {
	Image string `json:"image"`
}

type imageUploadResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
	Key     string `json:"key"`
}

// UploadImage stores an image sent either as multipart field "image" or as a
// JSON body carrying a data URL.
func (h *HTTPHandler) UploadImage(c *gin.Context) {
	if h.storage == nil {
		ServiceUnavailable(c, "storage is not configured")
		return
	}

	maxBytes := h.cfg.UploadMaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultUploadSize
	}

	data, ext, err := h.readUpload(c, maxBytes)
	if err != nil {
		if errors.Is(err, errUploadTooLarge) {
			ErrorResponse(c, http.StatusRequestEntityTooLarge, ErrCodeFileTooLarge,
				fmt.Sprintf("image exceeds %d bytes", maxBytes))
			return
		}
		BadRequest(c, ErrCodeInvalidRequest, err.Error())
		return
	}
	if !utils.IsAllowedImageExtension(ext) {
		BadRequest(c, ErrCodeUnsupportedExt, "only jpg, jpeg, png and gif images are allowed")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), uploadTimeout)
	defer cancel()

	key, err := h.storage.Save(ctx, data, storage.SaveOptions{
		Category:  uploadCategory,
		Extension: ext,
		BaseName:  uuid.NewString(),
	})
	if err != nil {
		logrus.WithError(err).Error("failed to store upload")
		InternalError(c)
		return
	}

	logrus.WithFields(logrus.Fields{"key": key, "size": len(data), "user_id": actorID(c)}).Info("image uploaded")
	c.JSON(http.StatusCreated, imageUploadResponse{
		Message: "image uploaded",
		URL:     h.publicURL(key),
		Key:     key,
	})
}

// DeleteUpload removes a previously uploaded object by key.
func (h *HTTPHandler) DeleteUpload(c *gin.Context) {
	if h.storage == nil {
		ServiceUnavailable(c, "storage is not configured")
		return
	}

	key, err := storage.CleanKey(c.Param("key"))
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid key")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), uploadTimeout)
	defer cancel()

	if err := h.storage.Delete(ctx, key); err != nil {
		if errors.Is(err, storage.ErrInvalidKey) {
			BadRequest(c, ErrCodeInvalidRequest, "invalid key")
			return
		}
		logrus.WithError(err).WithField("key", key).Error("failed to delete upload")
		InternalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "image deleted", "key": key})
}

var errUploadTooLarge = errors.New("upload too large")

func (h *HTTPHandler) readUpload(c *gin.Context, maxBytes int64) ([]byte, string, error) {
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/") {
		return readMultipartImage(c, maxBytes)
	}

	// A base64 body is about 4/3 of the decoded size.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes*2)
	var req imageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", errUploadTooLarge
		}
		return nil, "", errors.New("invalid request payload")
	}
	if strings.TrimSpace(req.Image) == "" {
		return nil, "", errors.New("image is required")
	}
	data, ext, err := utils.DecodeMediaPayload(req.Image)
	if err != nil {
		return nil, "", errors.New("image must be a base64 data URL")
	}
	if int64(len(data)) > maxBytes {
		return nil, "", errUploadTooLarge
	}
	return data, ext, nil
}

func readMultipartImage(c *gin.Context, maxBytes int64) ([]byte, string, error) {
	header, err := c.FormFile(uploadFormField)
	if err != nil {
		return nil, "", errors.New("image file is required")
	}
	if header.Size > maxBytes {
		return nil, "", errUploadTooLarge
	}
	file, err := header.Open()
	if err != nil {
		return nil, "", errors.New("could not read image file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, "", errors.New("could not read image file")
	}
	if int64(len(data)) > maxBytes {
		return nil, "", errUploadTooLarge
	}
	if len(data) == 0 {
		return nil, "", errors.New("image file is empty")
	}

	// The declared filename and content type are ignored in favour of the bytes.
	return data, utils.DetectImageExtension(data), nil
}

// publicURL resolves a storage key against the configured public base.
func (h *HTTPHandler) publicURL(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" || isAbsoluteURL(trimmed) {
		return trimmed
	}
	return storage.PublicURL(h.storagePublicBase, trimmed)
}
