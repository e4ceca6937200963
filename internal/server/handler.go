package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/rxmind/rxmind-backend/internal/errors"
	"github.com/rxmind/rxmind-backend/internal/logging"
	"github.com/rxmind/rxmind-backend/internal/processor"
)

// UploadFormField is the multipart field carrying the image
const UploadFormField = "file"

// UploadProcessor runs the upload pipeline
type UploadProcessor interface {
	ProcessUpload(ctx context.Context, upload *processor.Upload) (*processor.Result, error)
}

// HealthChecker reports the state of optional dependencies
type HealthChecker interface {
	HealthCheck(ctx context.Context) map[string]string
}

type Handler struct {
	processor     UploadProcessor
	health        HealthChecker
	maxUploadSize int64
	log           *logging.Logger
}

func NewHandler(proc UploadProcessor, health HealthChecker, maxUploadSize int64) *Handler {
	return &Handler{
		processor:     proc,
		health:        health,
		maxUploadSize: maxUploadSize,
		log:           logging.NewLogger("UploadHandler"),
	}
}

// UploadImage handles POST /upload-image/
func (h *Handler) UploadImage(c *gin.Context) {
	requestID := c.GetString(contextRequestID)

	upload, err := h.readUpload(c, requestID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.processor.ProcessUpload(c.Request.Context(), upload)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, NewResponsePayload(result))
}

func (h *Handler) readUpload(c *gin.Context, requestID string) (*processor.Upload, error) {
	fileHeader, err := c.FormFile(UploadFormField)
	if err != nil {
		return nil, h.classifyReadError(c, requestID, err)
	}

	if fileHeader.Size > h.maxUploadSize {
		return nil, apperrors.NewFileTooLargeError(requestID, h.maxUploadSize, nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, h.classifyReadError(c, requestID, err)
	}

	contentType := fileHeader.Header.Get("Content-Type")

	h.log.Debug("Upload received",
		"requestId", requestID,
		"filename", fileHeader.Filename,
		"contentType", contentType,
		"bytes", len(data))

	return &processor.Upload{
		RequestID:   requestID,
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (h *Handler) classifyReadError(c *gin.Context, requestID string, err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return apperrors.NewFileTooLargeError(requestID, h.maxUploadSize, err)
	case c.Request.Context().Err() != nil:
		return apperrors.NewRequestCancelledError(requestID, "upload read", err)
	default:
		return apperrors.NewFileMissingError(requestID, UploadFormField, err)
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status, payload := ErrorResponse(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, payload)
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	body := gin.H{"status": "ok"}

	if h.health != nil {
		deps := h.health.HealthCheck(c.Request.Context())
		for _, state := range deps {
			if state != "ok" {
				body["status"] = "degraded"
			}
		}
		if len(deps) > 0 {
			body["dependencies"] = deps
		}
	}

	c.JSON(http.StatusOK, body)
}
