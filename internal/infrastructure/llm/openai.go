package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/celanai/celan/internal/core/domain"
	"github.com/celanai/celan/internal/core/ports"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// Config holds the completion endpoint settings.
type Config struct {
	APIKey  string
	BaseURL string
}

// OpenAI calls an OpenAI-compatible Chat Completions endpoint. There is no
// client-side timeout; the request context bounds each call.
type OpenAI struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

func NewOpenAI(httpClient *http.Client, cfg Config) *OpenAI {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenAI{httpClient: httpClient, apiKey: cfg.APIKey, baseURL: baseURL}
}

// Configured reports whether an API key is set.
func (c *OpenAI) Configured() bool {
	return c.apiKey != ""
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete returns domain.ErrMissingCredential without any network call
// when no key is configured.
func (c *OpenAI) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if !c.Configured() {
		return "", domain.ErrMissingCredential
	}

	wire := openaiRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.System != "" {
		wire.Messages = append(wire.Messages, openaiMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		wire.Messages = append(wire.Messages, openaiMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("llm/openai: marshaling request: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm/openai: creating request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return "", fmt.Errorf("llm/openai: sending request: %w: %w", domain.ErrUpstreamCompletion, err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return "", readProviderError(httpResponse)
	}

	var resp openaiResponse
	if err := json.NewDecoder(httpResponse.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("llm/openai: decoding response: %w: %w", domain.ErrUpstreamCompletion, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// ProviderError is returned when the API responds with a non-200 status.
type ProviderError struct {
	StatusCode int
	Type       string
	Message    string
}

func (err *ProviderError) Error() string {
	if err.Type != "" {
		return fmt.Sprintf("llm: HTTP %d: %s: %s", err.StatusCode, err.Type, err.Message)
	}
	return fmt.Sprintf("llm: HTTP %d: %s", err.StatusCode, err.Message)
}

// Unwrap classifies the status for errors.Is checks against the domain
// upstream errors.
func (err *ProviderError) Unwrap() error {
	switch {
	case err.StatusCode == http.StatusUnauthorized:
		return domain.ErrUpstreamAuth
	case err.IsRateLimited():
		return domain.ErrUpstreamRateLimit
	default:
		return domain.ErrUpstreamCompletion
	}
}

func (err *ProviderError) IsRateLimited() bool {
	return err.StatusCode == http.StatusTooManyRequests
}

// readProviderError parses {"error":{"type":"...","message":"..."}} and
// falls back to the raw body.
func readProviderError(httpResponse *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(httpResponse.Body, 4096))

	var wireError struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Error.Message != "" {
		return &ProviderError{
			StatusCode: httpResponse.StatusCode,
			Type:       wireError.Error.Type,
			Message:    wireError.Error.Message,
		}
	}

	return &ProviderError{
		StatusCode: httpResponse.StatusCode,
		Message:    string(body),
	}
}
