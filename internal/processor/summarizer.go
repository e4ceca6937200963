package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/rxmind/rxmind-backend/internal/errors"
	"github.com/rxmind/rxmind-backend/internal/logging"
)

// LLMSummarizer simplifies medical text through a TextGenerator
type LLMSummarizer struct {
	generator TextGenerator
	timeout   time.Duration
	logger    *logging.Logger
}

// NewLLMSummarizer creates a summarizer. A non-positive timeout falls back to 60s.
func NewLLMSummarizer(generator TextGenerator, timeout time.Duration) (*LLMSummarizer, error) {
	if generator == nil {
		return nil, fmt.Errorf("text generator is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &LLMSummarizer{
		generator: generator,
		timeout:   timeout,
		logger:    logging.NewLogger("Summarizer"),
	}, nil
}

// Summarize sends the prompt once. Any failure, including a panic inside the
// provider client, is logged and returned as a failed SummaryResult.
func (s *LLMSummarizer) Summarize(ctx context.Context, text string) (result SummaryResult) {
	requestID := RequestIDFromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("llm client panic: %v", r)
			s.logFailure(requestID, err)
			result = FailedSummary(err)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	output, err := s.generator.GenerateText(callCtx, BuildSimplificationPrompt(text))
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			err = fmt.Errorf("llm call exceeded %v: %w", s.timeout, err)
		}
		s.logFailure(requestID, err)
		return FailedSummary(err)
	}

	output = strings.TrimSpace(output)
	if output == "" {
		err := errors.New("llm returned an empty response")
		s.logFailure(requestID, err)
		return FailedSummary(err)
	}

	return NewSummary(output)
}

func (s *LLMSummarizer) logFailure(requestID string, err error) {
	perr := apperrors.NewSummarizationFailedError(requestID, s.generator.Model(), err)

	s.logger.Error("LLM API call failed",
		"error_code", string(perr.Code),
		"request_id", perr.RequestID,
		"model", s.generator.Model(),
		"cause", err.Error())
}
