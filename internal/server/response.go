package server

import (
	"net/http"

	apperrors "github.com/rxmind/rxmind-backend/internal/errors"
	"github.com/rxmind/rxmind-backend/internal/processor"
)

// StatusClientClosedRequest is the de facto status for requests the client abandoned
const StatusClientClosedRequest = 499

// ResponsePayload is the JSON body of a processed upload.
// LLMSummary is omitted when summarization failed; Status is then "partial".
type ResponsePayload struct {
	ExtractedText string  `json:"extracted_text"`
	LLMSummary    *string `json:"llm_summary,omitempty"`
	Message       string  `json:"message"`
	Status        string  `json:"status"`
}

// ErrorPayload is the JSON body of every non-2xx response
type ErrorPayload struct {
	Detail string `json:"detail"`
}

// NewResponsePayload converts a pipeline result into the wire format
func NewResponsePayload(result *processor.Result) ResponsePayload {
	payload := ResponsePayload{
		ExtractedText: result.ExtractedText,
		Message:       result.Message,
		Status:        result.Status,
	}
	if result.Summary.OK() {
		summary := result.Summary.Output()
		payload.LLMSummary = &summary
	}
	return payload
}

// ErrorResponse maps the pipeline error taxonomy to a status and detail message
func ErrorResponse(err error) (int, ErrorPayload) {
	perr, ok := apperrors.AsProcessingError(err)
	if !ok {
		return http.StatusInternalServerError, ErrorPayload{Detail: "Internal server error"}
	}

	switch perr.Code {
	case apperrors.ErrorInvalidImage:
		return http.StatusBadRequest, ErrorPayload{Detail: perr.Message}
	case apperrors.ErrorFileMissing:
		return http.StatusUnprocessableEntity, ErrorPayload{Detail: perr.Message}
	case apperrors.ErrorFileTooLarge, apperrors.ErrorImageTooLarge:
		return http.StatusRequestEntityTooLarge, ErrorPayload{Detail: perr.Message}
	case apperrors.ErrorOCRFailed:
		return http.StatusInternalServerError, ErrorPayload{Detail: perr.Message}
	case apperrors.ErrorRequestCancelled:
		return StatusClientClosedRequest, ErrorPayload{Detail: "Request cancelled"}
	default:
		return http.StatusInternalServerError, ErrorPayload{Detail: "Internal server error"}
	}
}
