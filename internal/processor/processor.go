/**
 * Upload Processor for the RxMind backend
 *
 * Runs one upload through the pipeline:
 * - Image validation (full decode; failure stops the pipeline)
 * - Tesseract OCR on the whole image
 * - LLM simplification into a summary and checklist
 *
 * A summarization failure does not fail the upload. The result keeps the
 * extracted text, drops the summary and is marked partial.
 */

package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/rxmind/rxmind-backend/internal/errors"
	"github.com/rxmind/rxmind-backend/internal/imaging"
	"github.com/rxmind/rxmind-backend/internal/logging"
	"github.com/rxmind/rxmind-backend/internal/storage"
)

// OutcomeRecorder receives one outcome per upload
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, outcome *storage.UploadOutcome) error
}

// ProcessorConfig holds processor dependencies
type ProcessorConfig struct {
	Extractor  TextExtractor
	Summarizer Summarizer
	Recorder   OutcomeRecorder // optional

	// MaxImagePixels caps width*height; 0 uses imaging.DefaultMaxPixels
	MaxImagePixels int64
}

// UploadProcessor sequences validation, OCR and summarization
type UploadProcessor struct {
	extractor  TextExtractor
	summarizer Summarizer
	recorder   OutcomeRecorder
	maxPixels  int64
	logger     *logging.Logger
}

// NewUploadProcessor creates a new upload processor
func NewUploadProcessor(cfg *ProcessorConfig) (*UploadProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.Extractor == nil {
		return nil, fmt.Errorf("text extractor is required")
	}

	if cfg.Summarizer == nil {
		return nil, fmt.Errorf("summarizer is required")
	}

	maxPixels := cfg.MaxImagePixels
	if maxPixels <= 0 {
		maxPixels = imaging.DefaultMaxPixels
	}

	return &UploadProcessor{
		extractor:  cfg.Extractor,
		summarizer: cfg.Summarizer,
		recorder:   cfg.Recorder,
		maxPixels:  maxPixels,
		logger:     logging.NewLogger("UploadProcessor"),
	}, nil
}

// ProcessUpload runs the pipeline for a single upload.
// Returned errors are *errors.ProcessingError with INVALID_IMAGE, IMAGE_TOO_LARGE,
// OCR_FAILED or REQUEST_CANCELLED.
func (p *UploadProcessor) ProcessUpload(ctx context.Context, upload *Upload) (*Result, error) {
	startTime := time.Now()
	if upload == nil {
		upload = &Upload{}
	}
	requestID := upload.RequestID
	ctx = WithRequestID(ctx, requestID)
	log := p.logger.With("requestId", requestID)

	outcome := &storage.UploadOutcome{
		RequestID:   requestID,
		Filename:    upload.Filename,
		ContentType: upload.ContentType,
		SizeBytes:   int64(len(upload.Data)),
	}

	fail := func(perr *apperrors.ProcessingError) (*Result, error) {
		outcome.Status = "failed"
		outcome.ErrorCode = string(perr.Code)
		outcome.TotalDuration = time.Since(startTime)
		p.record(ctx, outcome)
		return nil, perr
	}

	// Step 1: Validate
	log.Info("Step 1: Validating upload", "filename", upload.Filename, "contentType", upload.ContentType, "bytes", len(upload.Data))
	decoded, err := imaging.Decode(upload.Data, p.maxPixels)
	if err != nil {
		log.Warn("Rejected upload", "error", err)
		if errors.Is(err, imaging.ErrImageTooLarge) {
			return fail(apperrors.NewImageTooLargeError(requestID, p.maxPixels, err))
		}
		return fail(apperrors.NewInvalidImageError(requestID, err))
	}
	outcome.ImageFormat = decoded.Format
	log.Info("Image decoded", "format", decoded.Format, "width", decoded.Width, "height", decoded.Height)

	// Step 2: OCR
	if err := ctx.Err(); err != nil {
		log.Warn("Client went away before OCR", "error", err)
		return fail(apperrors.NewRequestCancelledError(requestID, "ocr", err))
	}

	log.Info("Step 2: Extracting text", "engine", p.extractor.Name())
	ocrStart := time.Now()
	text, err := p.extractor.ExtractText(ctx, decoded)
	outcome.OCRDuration = time.Since(ocrStart)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return fail(apperrors.NewRequestCancelledError(requestID, "ocr", err))
		}
		log.Error("OCR failed", "engine", p.extractor.Name(), "error", err)
		return fail(apperrors.NewOCRFailedError(requestID, p.extractor.Name(), err))
	}
	outcome.TextLength = len(text)
	log.Info("Text extracted", "characters", len(text), "duration", outcome.OCRDuration)

	// Step 3: Summarize
	if err := ctx.Err(); err != nil {
		log.Warn("Client went away before summarization", "error", err)
		return fail(apperrors.NewRequestCancelledError(requestID, "summarization", err))
	}

	log.Info("Step 3: Generating summary")
	summaryStart := time.Now()
	summary := p.summarizer.Summarize(ctx, text)
	outcome.SummaryDuration = time.Since(summaryStart)

	result := &Result{
		RequestID:     requestID,
		ExtractedText: text,
		Summary:       summary,
		ImageFormat:   decoded.Format,
		ImageWidth:    decoded.Width,
		ImageHeight:   decoded.Height,
	}

	if summary.OK() {
		result.Status = StatusOK
		result.Message = MessageSuccess
	} else {
		result.Status = StatusPartial
		result.Message = MessageSummaryMissing
		log.Warn("Continuing without summary", "duration", outcome.SummaryDuration)
	}

	result.Timings = Timings{
		OCR:     outcome.OCRDuration,
		Summary: outcome.SummaryDuration,
		Total:   time.Since(startTime),
	}

	outcome.Status = result.Status
	outcome.SummaryGenerated = summary.OK()
	outcome.TotalDuration = result.Timings.Total
	p.record(ctx, outcome)

	log.Info("Pipeline complete", "status", result.Status, "duration", result.Timings.Total)
	return result, nil
}

// record hands the outcome to the recorder on a context detached from the
// request, so a disconnect does not drop the ledger entry
func (p *UploadProcessor) record(ctx context.Context, outcome *storage.UploadOutcome) {
	if p.recorder == nil {
		return
	}

	outcome.CompletedAt = time.Now().UTC()

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := p.recorder.RecordOutcome(recordCtx, outcome); err != nil {
		p.logger.Warn("Outcome not fully recorded", "requestId", outcome.RequestID, "error", err)
	}
}
