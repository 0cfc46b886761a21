package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const (
	defaultHFBaseURL = "https://router.huggingface.co"
	defaultHFModel   = "Qwen/Qwen2.5-7B-Instruct:together"

	hfSystemPrompt = "You are a data assistant."
)

type huggingFace struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewHuggingFace(client *http.Client, baseURL, apiKey, model string) Generator {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultHFBaseURL
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultHFModel
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &huggingFace{client: client, baseURL: baseURL, apiKey: apiKey, model: model}
}

func (h *huggingFace) Name() string { return ProviderHuggingFace }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	GeneratedText string `json:"generated_text"`
}

func (h *huggingFace) Generate(ctx context.Context, prompt string) (string, error) {
	body := chatRequest{
		Model: h.model,
		Messages: []chatMessage{
			{Role: "system", Content: hfSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   500,
		Temperature: 0.1,
	}
	headers := map[string]string{"Authorization": "Bearer " + h.apiKey}

	raw, err := postJSON(ctx, h.client, "HF", h.baseURL+"/v1/chat/completions", headers, body)
	if err != nil {
		return "", err
	}
	return extractChatText(raw), nil
}

// extractChatText accepts chat completions, {generated_text} and
// [{generated_text}] bodies, and falls back to the raw text.
func extractChatText(raw []byte) string {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var arr []chatResponse
		if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 && arr[0].GeneratedText != "" {
			return arr[0].GeneratedText
		}
		return string(raw)
	}
	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return string(raw)
	}
	if len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "" {
		return resp.Choices[0].Message.Content
	}
	if resp.GeneratedText != "" {
		return resp.GeneratedText
	}
	return string(raw)
}
