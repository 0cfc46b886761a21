package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/datagrid-backend/internal/platform/logger"
)

const (
	ProviderGoogle      = "google"
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"

	defaultTimeout = 60 * time.Second
)

// ErrEmptyResponse is returned when a provider answers 2xx without any text.
var ErrEmptyResponse = errors.New("empty response from model")

// Generator turns a single prompt into model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// HTTPError is a non-2xx provider reply.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Body)
}

type Config struct {
	Provider string

	GoogleAPIKey  string
	GoogleModel   string
	GoogleBaseURL string

	HFAPIKey  string
	HFModel   string
	HFBaseURL string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	Timeout time.Duration
}

// NormalizeProvider maps accepted aliases onto provider names. Unknown values
// are returned unchanged and rejected by New.
func NormalizeProvider(raw string) string {
	p := strings.ToLower(strings.TrimSpace(raw))
	switch p {
	case "", "google", "gemini":
		return ProviderGoogle
	case "hf", "huggingface":
		return ProviderHuggingFace
	case "openai":
		return ProviderOpenAI
	default:
		return p
	}
}

// New resolves the configured provider. A known provider without an API key
// yields a nil Generator and no error so the service can start and report 503.
func New(cfg Config, log *logger.Logger) (Generator, error) {
	provider := NormalizeProvider(cfg.Provider)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout}

	var (
		gen Generator
		key string
	)
	switch provider {
	case ProviderGoogle:
		key = cfg.GoogleAPIKey
		gen = NewGoogle(httpClient, cfg.GoogleBaseURL, cfg.GoogleAPIKey, cfg.GoogleModel)
	case ProviderHuggingFace:
		key = cfg.HFAPIKey
		gen = NewHuggingFace(httpClient, cfg.HFBaseURL, cfg.HFAPIKey, cfg.HFModel)
	case ProviderOpenAI:
		key = cfg.OpenAIAPIKey
		gen = NewOpenAI(httpClient, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER: %s", cfg.Provider)
	}

	if strings.TrimSpace(key) == "" {
		if log != nil {
			log.Warn("AI provider has no API key; query endpoint will report unavailable", "provider", provider)
		}
		return nil, nil
	}
	if log != nil {
		log.Info("AI provider configured", "provider", provider)
	}
	return gen, nil
}

// postJSON sends body and returns the raw response text for 2xx replies.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", provider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Provider: provider, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return respBody, nil
}
