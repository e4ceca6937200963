/**
 * Pipeline types shared by the summarizer, the orchestrator and its callers
 */

package processor

import (
	"context"
	"time"

	"github.com/rxmind/rxmind-backend/internal/imaging"
)

// Response statuses
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
)

// Response messages
const (
	MessageSuccess        = "Image processed: text extracted and summary generated"
	MessageSummaryMissing = "Text extracted, but the summary could not be generated"
)

// TextExtractor converts a decoded image to text
type TextExtractor interface {
	Name() string
	ExtractText(ctx context.Context, img *imaging.DecodedImage) (string, error)
}

// TextGenerator is the hosted LLM behind the summarizer
type TextGenerator interface {
	Model() string
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Summarizer turns extracted text into a summary. It never fails: provider
// errors come back inside the SummaryResult.
type Summarizer interface {
	Summarize(ctx context.Context, text string) SummaryResult
}

// Upload is the raw file as received over the wire
type Upload struct {
	RequestID   string
	Filename    string
	ContentType string
	Data        []byte
}

// SummaryResult carries either the model's output or an error description, never both
type SummaryResult struct {
	ok     bool
	output string
	errMsg string
}

// NewSummary wraps a successful completion
func NewSummary(output string) SummaryResult {
	return SummaryResult{ok: true, output: output}
}

// FailedSummary wraps a provider failure
func FailedSummary(err error) SummaryResult {
	msg := "summary generation failed"
	if err != nil {
		msg = err.Error()
	}
	return SummaryResult{errMsg: msg}
}

// OK reports whether the summary was generated
func (r SummaryResult) OK() bool { return r.ok }

// Output is the model's text; empty when !OK()
func (r SummaryResult) Output() string { return r.output }

// ErrorMessage describes the failure; empty when OK()
func (r SummaryResult) ErrorMessage() string { return r.errMsg }

// Timings records how long each stage took
type Timings struct {
	OCR     time.Duration
	Summary time.Duration
	Total   time.Duration
}

// Result is the outcome of a processed upload
type Result struct {
	RequestID     string
	ExtractedText string
	Summary       SummaryResult
	Status        string
	Message       string
	ImageFormat   string
	ImageWidth    int
	ImageHeight   int
	Timings       Timings
}

type requestIDKey struct{}

// WithRequestID attaches a request ID for log correlation
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request ID attached by WithRequestID
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
