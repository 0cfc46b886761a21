package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com"
	defaultOpenAIModel   = "gpt-4o-mini"

	openAISystemPrompt = "You are a data assistant."
)

type openAI struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewOpenAI(client *http.Client, baseURL, apiKey, model string) Generator {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultOpenAIModel
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &openAI{client: client, baseURL: baseURL, apiKey: apiKey, model: model}
}

func (o *openAI) Name() string { return ProviderOpenAI }

type responsesInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model           string           `json:"model"`
	Input           []responsesInput `json:"input"`
	Temperature     float64          `json:"temperature"`
	MaxOutputTokens int              `json:"max_output_tokens"`
}

type responsesResponse struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

func (o *openAI) Generate(ctx context.Context, prompt string) (string, error) {
	body := responsesRequest{
		Model: o.model,
		Input: []responsesInput{
			{Role: "system", Content: openAISystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:     0.1,
		MaxOutputTokens: 800,
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}

	raw, err := postJSON(ctx, o.client, "OpenAI", o.baseURL+"/v1/responses", headers, body)
	if err != nil {
		return "", err
	}

	var resp responsesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("OpenAI: decode response: %w", err)
	}
	out := extractOutputText(resp)
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func extractOutputText(resp responsesResponse) string {
	if resp.OutputText != "" {
		return resp.OutputText
	}
	var sb strings.Builder
	for _, item := range resp.Output {
		for _, c := range item.Content {
			if c.Type == "output_text" {
				sb.WriteString(c.Text)
			}
		}
	}
	return sb.String()
}
