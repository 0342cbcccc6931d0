package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

const maxErrorBody = 1 << 20

var (
	// ErrMissingResult is returned when a 2xx response carries no image.
	ErrMissingResult = errors.New("no image returned")

	// ErrNotConfigured is returned by provider calls made without an API key.
	ErrNotConfigured = errors.New("OpenAI API key not configured")
)

// RemoteError is a non-2xx answer from one of the proxy endpoints.
type RemoteError struct {
	Status  int
	Message string
	Code    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("proxy error (status %d): %s", e.Status, e.Message)
}

// ProviderError is a non-2xx answer from the upstream image/chat provider.
type ProviderError struct {
	Status  int
	Code    string
	Type    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error (status %d, %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("provider error (status %d): %s", e.Status, e.Message)
}

// readRemoteError builds a RemoteError from a proxy response. JSON bodies
// contribute their error/code fields; anything else is used as plain text.
func readRemoteError(resp *http.Response) *RemoteError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	rerr := &RemoteError{Status: resp.StatusCode}

	var parsed struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		rerr.Message = parsed.Error
		rerr.Code = parsed.Code
		return rerr
	}

	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") {
		rerr.Message = truncate(text, 512)
		return rerr
	}

	rerr.Message = fmt.Sprintf("proxy returned status %d", resp.StatusCode)
	return rerr
}

// readProviderError decodes the provider's {"error":{message,type,code}}
// envelope, falling back to the raw body.
func readProviderError(resp *http.Response) *ProviderError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	perr := &ProviderError{Status: resp.StatusCode}

	var envelope struct {
		Error struct {
			Message string          `json:"message"`
			Type    string          `json:"type"`
			Code    json.RawMessage `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		perr.Message = envelope.Error.Message
		perr.Type = envelope.Error.Type
		perr.Code = rawCode(envelope.Error.Code)
		if perr.Code == "" {
			perr.Code = envelope.Error.Type
		}
		return perr
	}

	perr.Message = truncate(strings.TrimSpace(string(body)), 512)
	if perr.Message == "" {
		perr.Message = http.StatusText(resp.StatusCode)
	}
	return perr
}

// rawCode accepts both string and numeric codes.
func rawCode(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// DataURL wraps inline base64 PNG data so it can be used as an image source.
func DataURL(b64 string) string {
	return "data:image/png;base64," + b64
}
