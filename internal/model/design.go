package model

import "time"

// GenerationRequest is what the storefront submits for a new design. Prompt
// emptiness and length are checked by the prompt validator, not by struct
// tags, so the outcome can carry a user-facing message.
type GenerationRequest struct {
	Prompt       string      `json:"prompt"`
	Style        StyleID     `json:"style" validate:"omitempty,max=64"`
	GarmentColor string      `json:"garmentColor" validate:"omitempty,max=64"`
	Quality      QualityTier `json:"quality" validate:"omitempty,oneof=standard high"`

	// ClientKey identifies the caller (user id or IP) in the generation log.
	ClientKey string `json:"-"`
}

// GenerationOutcome is returned for every orchestrated call. Exactly one of
// ImageURL or Error is set.
type GenerationOutcome struct {
	Success       bool            `json:"success"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	RevisedPrompt string          `json:"revisedPrompt,omitempty"`
	Error         string          `json:"error,omitempty"`
	Reason        RejectionReason `json:"reason,omitempty"`
	Prompt        string          `json:"prompt,omitempty"`
	Quality       QualityTier     `json:"quality,omitempty"`
}

// ImageResult is the parsed proxy response. URL is either a remote URL or a
// data URL; raw base64 never survives past the adapter.
type ImageResult struct {
	URL           string `json:"url"`
	RevisedPrompt string `json:"revisedPrompt,omitempty"`
}

// GenerationLogEntry is one append-only row of the generation log.
type GenerationLogEntry struct {
	ID             string      `json:"id"`
	OriginalPrompt string      `json:"originalPrompt"`
	EnhancedPrompt string      `json:"enhancedPrompt"`
	RevisedPrompt  string      `json:"revisedPrompt,omitempty"`
	Style          StyleID     `json:"style"`
	GarmentColor   string      `json:"garmentColor"`
	Quality        QualityTier `json:"quality"`
	Success        bool        `json:"success"`
	ImageURL       string      `json:"imageUrl,omitempty"`
	ErrorMessage   string      `json:"errorMessage,omitempty"`
	ClientKey      string      `json:"clientKey,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// StyleInfo is one entry of the public style catalogue.
type StyleInfo struct {
	ID          StyleID `json:"id"`
	Description string  `json:"description"`
}

// GenerationLogPage is the admin listing response.
type GenerationLogPage struct {
	Entries []GenerationLogEntry `json:"entries"`
	Count   int                  `json:"count"`
}
