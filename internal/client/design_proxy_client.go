package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vibewear/api/internal/config"
	"github.com/vibewear/api/internal/model"
)

// DesignProxyClient submits enhanced prompts to the design proxy endpoint.
// It never sees the provider credential. One attempt per call, no retries.
type DesignProxyClient struct {
	httpClient *http.Client
	url        string
	secret     string
}

func NewDesignProxyClient(cfg *config.ProxyConfig) *DesignProxyClient {
	c := NewDesignProxyClientWithHTTP(cfg.DesignURL, &http.Client{Timeout: cfg.Timeout})
	c.secret = cfg.Secret
	return c
}

func NewDesignProxyClientWithHTTP(url string, httpClient *http.Client) *DesignProxyClient {
	return &DesignProxyClient{httpClient: httpClient, url: url}
}

// Invoke posts {prompt, quality} and returns the image reference. Non-2xx
// answers become *RemoteError; a 2xx answer without an image is
// ErrMissingResult.
func (c *DesignProxyClient) Invoke(ctx context.Context, prompt string, quality model.QualityTier) (*model.ImageResult, error) {
	bodyBytes, err := json.Marshal(model.DesignProxyRequest{Prompt: prompt, Quality: quality.OrDefault()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set(model.HeaderProxySecret, c.secret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach design proxy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readRemoteError(resp)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out model.DesignProxyResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if out.Error != "" {
		return nil, &RemoteError{Status: resp.StatusCode, Message: out.Error, Code: out.Code}
	}

	return normalizeImage(&out)
}

func normalizeImage(out *model.DesignProxyResponse) (*model.ImageResult, error) {
	result := &model.ImageResult{URL: out.URL, RevisedPrompt: out.RevisedPrompt}
	if result.URL == "" && out.B64JSON != "" {
		result.URL = DataURL(out.B64JSON)
	}
	out.B64JSON = ""
	if result.URL == "" {
		return nil, ErrMissingResult
	}
	return result, nil
}
