package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vibewear/api/internal/config"
	"github.com/vibewear/api/internal/model"
)

const (
	imageSize  = "1024x1024"
	imageCount = 1
)

// OpenAIClient talks to the image and chat-completion provider. Only the
// proxy handlers hold one; it is the single place the API key is used.
type OpenAIClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	imageModel string
	chatModel  string
}

type imageGenerationRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Quality string `json:"quality,omitempty"`
	Size    string `json:"size"`
	N       int    `json:"n"`
}

type imageGenerationResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url"`
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *model.Usage `json:"usage"`
}

// ChatResult is the first choice of a chat completion plus its usage.
type ChatResult struct {
	Content string
	Usage   *model.Usage
}

// NewOpenAIClient builds the provider client. A missing API key produces a
// client whose calls fail with ErrNotConfigured.
func NewOpenAIClient(cfg *config.OpenAIConfig) *OpenAIClient {
	return NewOpenAIClientWithHTTP(cfg, &http.Client{Timeout: cfg.Timeout})
}

func NewOpenAIClientWithHTTP(cfg *config.OpenAIConfig, httpClient *http.Client) *OpenAIClient {
	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = "gpt-image-1"
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = "gpt-4o"
	}
	return &OpenAIClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		imageModel: imageModel,
		chatModel:  chatModel,
	}
}

func (c *OpenAIClient) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *OpenAIClient) ChatModel() string {
	return c.chatModel
}

// ProviderQuality maps a quality tier onto the value the image model accepts.
// An empty result means the field is omitted.
func ProviderQuality(imageModel string, tier model.QualityTier) string {
	high := tier.OrDefault() == model.QualityHigh
	switch {
	case imageModel == "dall-e-3":
		if high {
			return "hd"
		}
		return "standard"
	case imageModel == "dall-e-2":
		return ""
	default:
		if high {
			return "high"
		}
		return "medium"
	}
}

// GenerateImage requests one 1024x1024 image. Inline base64 output is
// converted to a data URL before returning.
func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt string, quality model.QualityTier) (*model.ImageResult, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	reqBody := imageGenerationRequest{
		Model:   c.imageModel,
		Prompt:  prompt,
		Quality: ProviderQuality(c.imageModel, quality),
		Size:    imageSize,
		N:       imageCount,
	}

	var out imageGenerationResponse
	if err := c.post(ctx, "/images/generations", reqBody, &out); err != nil {
		return nil, err
	}

	if len(out.Data) == 0 {
		return nil, ErrMissingResult
	}

	img := out.Data[0]
	result := &model.ImageResult{URL: img.URL, RevisedPrompt: img.RevisedPrompt}
	if result.URL == "" && img.B64JSON != "" {
		result.URL = DataURL(img.B64JSON)
	}
	if result.URL == "" {
		return nil, ErrMissingResult
	}
	return result, nil
}

// ChatCompletion forwards a caller-built chat request. The configured chat
// model is filled in when the payload names none.
func (c *OpenAIClient) ChatCompletion(ctx context.Context, payload json.RawMessage) (*ChatResult, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("invalid chat payload: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("invalid chat payload: empty object")
	}
	if m, ok := fields["model"]; !ok || string(m) == `""` || string(m) == "null" {
		fields["model"], _ = json.Marshal(c.chatModel)
	}

	var out chatCompletionResponse
	if err := c.post(ctx, "/chat/completions", fields, &out); err != nil {
		return nil, err
	}

	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &ChatResult{Content: out.Choices[0].Message.Content, Usage: out.Usage}, nil
}

func (c *OpenAIClient) post(ctx context.Context, path string, body, out interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readProviderError(resp)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
