package model

// AnalyzeDesignRequest asks for feedback on a single generated design
type AnalyzeDesignRequest struct {
	ImageURL     string  `json:"imageUrl" validate:"required"`
	Prompt       string  `json:"prompt" validate:"required,max=1000"`
	Style        StyleID `json:"style" validate:"omitempty,max=64"`
	GarmentColor string  `json:"garmentColor" validate:"omitempty,max=64"`
}

// DesignRef points at one design variation
type DesignRef struct {
	ImageURL string `json:"imageUrl" validate:"required"`
}

// CompareDesignsRequest asks for a ranking of several variations
type CompareDesignsRequest struct {
	Designs      []DesignRef `json:"designs" validate:"required,min=2,max=4,dive"`
	Prompt       string      `json:"prompt" validate:"required,max=1000"`
	Style        StyleID     `json:"style" validate:"omitempty,max=64"`
	GarmentColor string      `json:"garmentColor" validate:"omitempty,max=64"`
}

// SuggestPromptsRequest asks for improved prompt variations based on an analysis
type SuggestPromptsRequest struct {
	Prompt   string  `json:"prompt" validate:"required,max=1000"`
	Style    StyleID `json:"style" validate:"omitempty,max=64"`
	Analysis string  `json:"analysis" validate:"required,max=10000"`
}

// AnalysisResult is returned to the storefront. On failure only Success,
// Error and OriginalError are set.
type AnalysisResult struct {
	Success       bool   `json:"success"`
	Analysis      string `json:"analysis,omitempty"`
	Comparison    string `json:"comparison,omitempty"`
	Suggestions   string `json:"suggestions,omitempty"`
	Usage         *Usage `json:"usage,omitempty"`
	Error         string `json:"error,omitempty"`
	OriginalError string `json:"originalError,omitempty"`
}

// Usage mirrors the provider's token accounting
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatRequest is the provider chat-completion request forwarded verbatim by
// the analysis proxy.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

// ChatMessage content is either a string or a []ContentPart.
type ChatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type ContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *ImageURLPart `json:"image_url,omitempty"`
}

type ImageURLPart struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}
