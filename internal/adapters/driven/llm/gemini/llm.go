// Package gemini provides an LLM service adapter using the Google
// Gemini REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 120 * time.Second

	// DefaultRequestsPerMinute matches the free-tier quota. Requests
	// beyond it block until the limiter admits them.
	DefaultRequestsPerMinute = 15

	apiVersion = "v1beta"
)

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://generativelanguage.googleapis.com).
	BaseURL string

	// Model is the LLM model to use (default: gemini-2.0-flash).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// RequestsPerMinute throttles calls to stay inside the API quota
	// (default: 15). Set negative to disable throttling.
	RequestsPerMinute int
}

// LLMService provides LLM operations using the Gemini API.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	limiter *rate.Limiter
}

// generateRequest is the Gemini generateContent request format.
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

// generateResponse is the Gemini generateContent response format.
type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &LLMService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		limiter: limiter,
	}, nil
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("gemini: rate limit wait: %w", err)
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	if opts.MaxTokens > 0 || opts.Temperature > 0 {
		reqBody.GenerationConfig = &generationConfig{
			MaxOutputTokens: opts.MaxTokens,
			Temperature:     opts.Temperature,
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", s.baseURL, apiVersion, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if genResp.Error != nil {
		return "", fmt.Errorf("gemini error: %s", genResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini error (status %d): %s", resp.StatusCode, string(body))
	}

	if len(genResp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no response candidates returned")
	}

	// Concatenate all text parts of the first candidate
	var result strings.Builder
	for _, p := range genResp.Candidates[0].Content.Parts {
		result.WriteString(p.Text)
	}

	return result.String(), nil
}

// answerPrompt frames a grounded question over retrieved passages.
const answerPrompt = `You are analysing extracts from an electricity regulatory commission order.
Answer the question using ONLY the context below. Quote figures exactly as
they appear. If the context does not contain the answer, say so.

Context:
%s

Question: %s

Answer:`

// summarisePrompt asks for a compact abstract of the whole document.
const summarisePrompt = `Summarise the following electricity regulatory commission order.
Cover the applicant, the tariffs or charges determined, the control period,
and any directives. Keep it under 200 words.

Document:
%s

Summary:`

// Answer responds to a question grounded in the supplied context text.
func (s *LLMService) Answer(ctx context.Context, contextText, question string) (string, error) {
	prompt := fmt.Sprintf(answerPrompt, contextText, question)

	result, err := s.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("answer: %w", err)
	}

	return strings.TrimSpace(result), nil
}

// Summarise creates an abstract of document content.
func (s *LLMService) Summarise(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(summarisePrompt, text)

	result, err := s.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   512,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("summarise: %w", err)
	}

	return strings.TrimSpace(result), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by listing models.
// This is a lightweight check that validates the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s/models", s.baseURL, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("gemini: failed to create ping request: %w", err)
	}
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("gemini: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("gemini: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
