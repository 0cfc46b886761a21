package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultGoogleBaseURL = "https://generativelanguage.googleapis.com"
	defaultGoogleModel   = "gemini-1.5-flash"
)

type google struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewGoogle(client *http.Client, baseURL, apiKey, model string) Generator {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultGoogleModel
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &google{client: client, baseURL: baseURL, apiKey: apiKey, model: model}
}

func (g *google) Name() string { return ProviderGoogle }

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Parts []googlePart `json:"parts"`
}

type googleRequest struct {
	Contents         []googleContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type googleResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
}

func (g *google) Generate(ctx context.Context, prompt string) (string, error) {
	var body googleRequest
	body.Contents = []googleContent{{Parts: []googlePart{{Text: prompt}}}}
	body.GenerationConfig.Temperature = 0.1
	body.GenerationConfig.MaxOutputTokens = 800

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))

	raw, err := postJSON(ctx, g.client, "Google", endpoint, nil, body)
	if err != nil {
		return "", err
	}

	var resp googleResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("Google: decode response: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	out := sb.String()
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
