package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

/**
 * Custom error types for the RxMind upload pipeline
 *
 * Every failure that can reach the HTTP layer carries one of the codes below.
 * Summarization failures are the exception: they are converted to an in-band
 * value by the summarizer and only use SUMMARIZATION_FAILED for logging.
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Upload errors
	ErrorInvalidImage  ErrorCode = "INVALID_IMAGE"
	ErrorFileMissing   ErrorCode = "FILE_MISSING"
	ErrorFileTooLarge  ErrorCode = "FILE_TOO_LARGE"
	ErrorImageTooLarge ErrorCode = "IMAGE_TOO_LARGE"

	// Pipeline errors
	ErrorOCRFailed           ErrorCode = "OCR_FAILED"
	ErrorSummarizationFailed ErrorCode = "SUMMARIZATION_FAILED"
	ErrorRequestCancelled    ErrorCode = "REQUEST_CANCELLED"

	// Startup errors
	ErrorConfiguration ErrorCode = "CONFIGURATION_ERROR"
)

// ProcessingError represents a structured processing error
type ProcessingError struct {
	Code      ErrorCode
	Message   string
	RequestID string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// Factory functions for common errors

func NewInvalidImageError(requestID string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorInvalidImage,
		Message:   "Uploaded file is not a valid image",
		RequestID: requestID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewFileMissingError(requestID string, field string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorFileMissing,
		Message:   fmt.Sprintf("No file uploaded in form field %q", field),
		RequestID: requestID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"field": field,
		},
		Cause: cause,
	}
}

func NewFileTooLargeError(requestID string, limit int64, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorFileTooLarge,
		Message:   fmt.Sprintf("Uploaded file exceeds the maximum size of %d bytes", limit),
		RequestID: requestID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"max_bytes": limit,
		},
		Cause: cause,
	}
}

func NewImageTooLargeError(requestID string, maxPixels int64, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorImageTooLarge,
		Message:   fmt.Sprintf("Image dimensions exceed the maximum of %d pixels", maxPixels),
		RequestID: requestID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"max_pixels": maxPixels,
		},
		Cause: cause,
	}
}

func NewOCRFailedError(requestID string, engine string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorOCRFailed,
		Message:   "Failed to extract text from image",
		RequestID: requestID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"ocr_engine": engine,
		},
		Cause: cause,
	}
}

func NewSummarizationFailedError(requestID string, model string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorSummarizationFailed,
		Message:   "Summary generation failed",
		RequestID: requestID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"model": model,
		},
		Cause: cause,
	}
}

func NewRequestCancelledError(requestID string, stage string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorRequestCancelled,
		Message:   fmt.Sprintf("Request cancelled before %s", stage),
		RequestID: requestID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"stage": stage,
		},
		Cause: cause,
	}
}

func NewConfigurationError(message string) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorConfiguration,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// AsProcessingError returns the first ProcessingError in err's chain
func AsProcessingError(err error) (*ProcessingError, bool) {
	var pe *ProcessingError
	if stderrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// CodeOf returns the code of the first ProcessingError in err's chain,
// or an empty code when there is none.
func CodeOf(err error) ErrorCode {
	if pe, ok := AsProcessingError(err); ok {
		return pe.Code
	}
	return ""
}

// HasCode reports whether err's chain contains a ProcessingError with code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// ToMap converts error to map for logging and event payloads
func (e *ProcessingError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	if e.RequestID != "" {
		result["request_id"] = e.RequestID
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
