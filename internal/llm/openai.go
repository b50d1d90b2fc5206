package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"futurecast/internal/logging"
)

const defaultSystemPrompt = "You are a helpful assistant."

// OpenAIConfig holds configuration for the OpenAI-compatible client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// MaxRetries bounds the 429 backoff loop. Zero means fail-fast with
	// no retry, which is the default behavior.
	MaxRetries int

	// RequestSpacing is the minimum interval between requests.
	RequestSpacing time.Duration
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		APIKey:         apiKey,
		BaseURL:        "https://api.openai.com/v1",
		Model:          "gpt-4o-mini",
		Timeout:        120 * time.Second,
		RequestSpacing: 100 * time.Millisecond,
	}
}

// OpenAIClient implements Client for OpenAI-compatible APIs.
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	model       string
	maxRetries  int
	spacing     time.Duration
	httpClient  *http.Client
	validator   *Validator
	mu          sync.Mutex
	lastRequest time.Time
}

// NewOpenAIClient creates a client with default config.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return NewOpenAIClientWithConfig(DefaultOpenAIConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a client with custom config.
func NewOpenAIClientWithConfig(config OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     config.APIKey,
		baseURL:    config.BaseURL,
		model:      config.Model,
		maxRetries: config.MaxRetries,
		spacing:    config.RequestSpacing,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		validator: NewValidator(),
	}
}

// Complete sends a prompt without a schema and returns free text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.completeRaw(ctx, prompt, nil)
}

// Generate sends a prompt with a response format and returns the raw
// JSON of the response object after validating it against the schema.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, format *ResponseFormat) (json.RawMessage, error) {
	if format == nil || format.JSONSchema == nil {
		return nil, &GenerationError{Err: fmt.Errorf("response format with schema required")}
	}

	text, err := c.completeRaw(ctx, prompt, format)
	if err != nil {
		return nil, &GenerationError{Step: format.JSONSchema.Name, Err: err}
	}

	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, &GenerationError{Step: format.JSONSchema.Name, Err: err}
	}

	// Providers that ignore response_format still pass through here, so
	// conformance is checked on our side of the boundary.
	if err := c.validator.Validate(format.JSONSchema, raw); err != nil {
		return nil, &GenerationError{Step: format.JSONSchema.Name, Err: err}
	}

	return raw, nil
}

func (c *OpenAIClient) completeRaw(ctx context.Context, prompt string, format *ResponseFormat) (string, error) {
	// Auto-apply timeout if context has no deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	logging.APIDebug("[OpenAI] request: model=%s prompt_len=%d structured=%v", c.model, len(prompt), format != nil)

	if c.apiKey == "" {
		logging.APIError("[OpenAI] API key not configured")
		return "", fmt.Errorf("API key not configured")
	}

	// Rate limiting: keep a minimum spacing between requests.
	if c.spacing > 0 {
		c.mu.Lock()
		elapsed := time.Since(c.lastRequest)
		if elapsed < c.spacing {
			time.Sleep(c.spacing - elapsed)
		}
		c.lastRequest = time.Now()
		c.mu.Unlock()
	}

	reqBody := ChatRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: defaultSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:      4096,
		Temperature:    0.1,
		ResponseFormat: format,
	}

	var lastErr error

	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// Exponential backoff: 1s, 2s, 4s.
			select {
			case <-time.After(time.Duration(1<<uint(i-1)) * time.Second):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return "", fmt.Errorf("failed to marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limit exceeded (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			// Some providers reject response_format; retry once without it
			// and rely on client-side validation alone.
			if format != nil && reqBody.ResponseFormat != nil && resp.StatusCode == http.StatusBadRequest {
				bodyStr := string(body)
				if strings.Contains(bodyStr, "response_format") || strings.Contains(bodyStr, "json_schema") {
					reqBody.ResponseFormat = nil
					lastErr = fmt.Errorf("request rejected structured output, retrying without response_format: %s", bodyStr)
					continue
				}
			}
			return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}

		var chatResp ChatResponse
		if err := json.Unmarshal(body, &chatResp); err != nil {
			return "", fmt.Errorf("failed to parse response: %w", err)
		}

		if chatResp.Error != nil {
			return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
		}

		if len(chatResp.Choices) == 0 {
			logging.APIError("[OpenAI] no completion returned")
			return "", fmt.Errorf("no completion returned")
		}

		response := strings.TrimSpace(chatResp.Choices[0].Message.Content)
		logging.API("[OpenAI] completed in %v response_len=%d tokens=%d", time.Since(startTime), len(response), chatResp.Usage.TotalTokens)
		return response, nil
	}

	logging.APIError("[OpenAI] retries exhausted after %v: %v", time.Since(startTime), lastErr)
	if c.maxRetries == 0 {
		return "", lastErr
	}
	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// SetModel changes the model used for completions.
func (c *OpenAIClient) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model.
func (c *OpenAIClient) GetModel() string {
	return c.model
}
