package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ingeniar/bizgen/pkg/llm"
	"github.com/ingeniar/bizgen/pkg/metrics"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-1.5-flash"
)

// Client is a minimal Gemini generateContent client.
type Client struct {
	APIKey  string
	BaseURL string
	Model   string
	http    *resty.Client
}

// New builds a client. A zero timeout leaves the call bounded only by the remote API.
func New(apiKey, baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	rc := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", apiKey)
	if timeout > 0 {
		rc.SetTimeout(timeout)
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		http:    rc,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float32 `json:"temperature"`
	TopP            float32 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateContentRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type generateContentResponse struct {
	Candidates     []candidate `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) ModelName() string { return c.Model }

// Generate sends one prompt with the given system instruction and sampling parameters
// and returns the text of the first candidate.
func (c *Client) Generate(ctx context.Context, systemInstruction string, cfg llm.GenerationConfig, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("gemini api key is empty")
	}
	metrics.IncLLMRequest("gemini", c.Model)

	body := generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     cfg.Temperature,
			TopP:            cfg.TopP,
			TopK:            cfg.TopK,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
	}
	if systemInstruction != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: systemInstruction}}}
	}

	var out generateContentResponse
	var apiErr apiError
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.BaseURL, c.Model)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post(endpoint)
	if err != nil {
		metrics.IncError("llm", "http_do")
		return "", fmt.Errorf("gemini request: %w", err)
	}
	if resp.IsError() {
		metrics.IncError("llm", fmt.Sprintf("api_error_%d", resp.StatusCode()))
		if apiErr.Error.Message != "" {
			return "", fmt.Errorf("gemini http %d: %s", resp.StatusCode(), apiErr.Error.Message)
		}
		return "", fmt.Errorf("gemini http %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		metrics.IncError("llm", "blocked")
		return "", fmt.Errorf("prompt blocked by model: %s", out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		metrics.IncError("llm", "no_candidates")
		return "", errors.New("no candidates returned by model")
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		metrics.IncError("llm", "empty_text")
		return "", fmt.Errorf("empty response from model (finish reason %q)", out.Candidates[0].FinishReason)
	}
	return sb.String(), nil
}

// Ping fetches the model metadata to confirm the key and model are usable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("%s/models/%s", c.BaseURL, c.Model))
	if err != nil {
		return fmt.Errorf("gemini ping: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("gemini ping: http %d", resp.StatusCode())
	}
	return nil
}
