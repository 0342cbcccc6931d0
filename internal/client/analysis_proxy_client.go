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

// AnalysisProxyClient posts chat payloads to the analysis proxy endpoint.
type AnalysisProxyClient struct {
	httpClient *http.Client
	url        string
	secret     string
}

func NewAnalysisProxyClient(cfg *config.ProxyConfig) *AnalysisProxyClient {
	c := NewAnalysisProxyClientWithHTTP(cfg.AnalysisURL, &http.Client{Timeout: cfg.Timeout})
	c.secret = cfg.Secret
	return c
}

func NewAnalysisProxyClientWithHTTP(url string, httpClient *http.Client) *AnalysisProxyClient {
	return &AnalysisProxyClient{httpClient: httpClient, url: url}
}

// Analyze sends {type, payload} and returns the data object of the reply.
func (c *AnalysisProxyClient) Analyze(ctx context.Context, typ model.AnalysisType, payload *model.ChatRequest) (*model.AnalysisData, error) {
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	bodyBytes, err := json.Marshal(model.AnalysisProxyRequest{Type: typ, Payload: rawPayload})
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
		return nil, fmt.Errorf("failed to reach analysis proxy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readRemoteError(resp)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out model.AnalysisProxyResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if out.Error != "" {
		return nil, &RemoteError{Status: resp.StatusCode, Message: out.Error}
	}
	if out.Data == nil {
		return nil, fmt.Errorf("analysis proxy returned no data")
	}
	return out.Data, nil
}
