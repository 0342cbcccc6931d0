package model

import "encoding/json"

// HeaderProxySecret carries the shared secret the proxy endpoints require.
const HeaderProxySecret = "X-Proxy-Secret"

// Wire types of the two credential-holding proxy endpoints. Errors travel as
// a flat {"error": "..."} body rather than the API error envelope.

type DesignProxyRequest struct {
	Prompt  string      `json:"prompt"`
	Quality QualityTier `json:"quality,omitempty" validate:"omitempty,oneof=standard high"`
}

type DesignProxyResponse struct {
	URL           string `json:"url,omitempty"`
	B64JSON       string `json:"b64_json,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
	Error         string `json:"error,omitempty"`
	Code          string `json:"code,omitempty"`
}

type AnalysisProxyRequest struct {
	Type    AnalysisType    `json:"type" validate:"required,oneof=single compare suggest"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

type AnalysisProxyResponse struct {
	Data  *AnalysisData `json:"data,omitempty"`
	Error string        `json:"error,omitempty"`
}

// AnalysisData carries exactly one of Analysis, Comparison or Suggestions,
// keyed by the request type.
type AnalysisData struct {
	Analysis    string `json:"analysis,omitempty"`
	Comparison  string `json:"comparison,omitempty"`
	Suggestions string `json:"suggestions,omitempty"`
	Usage       *Usage `json:"usage,omitempty"`
}
