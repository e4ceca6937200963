/**
 * Gemini Client - hosted LLM used to simplify medical instructions
 *
 * Built once at startup from configuration and shared by every request.
 * The client holds no per-request state; each call carries its own context
 * and deadline.
 */

package clients

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/rxmind/rxmind-backend/internal/logging"
)

// GeminiClient handles communication with the Gemini API
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *logging.Logger
}

// GeminiConfig holds Gemini client configuration
type GeminiConfig struct {
	APIKey string
	Model  string

	// HTTPClient overrides the transport. Nil uses a client with a 120s ceiling;
	// per-call deadlines come from the caller's context.
	HTTPClient *http.Client
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, cfg *GeminiConfig) (*GeminiClient, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  cfg.Model,
		logger: logging.NewLogger("GeminiClient"),
	}, nil
}

// Model returns the configured model name
func (c *GeminiClient) Model() string {
	return c.model
}

// GenerateText sends a single-turn prompt and returns the trimmed completion
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	startTime := time.Now()

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini blocked the prompt (blockReason=%s)", resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("gemini returned no candidates")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		// Safety blocks and token limits come back as a candidate with no text
		return "", fmt.Errorf("gemini returned an empty completion (finishReason=%s)", finishReason(resp.Candidates[0]))
	}

	c.logger.Debug("Gemini completion received",
		"model", c.model,
		"promptLength", len(prompt),
		"responseLength", len(text),
		"duration", time.Since(startTime))

	return text, nil
}

func finishReason(c *genai.Candidate) string {
	if c == nil || c.FinishReason == "" {
		return "unknown"
	}
	return string(c.FinishReason)
}
