package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vibewear/api/internal/model"
)

const MsgAnalysisUnavailable = "AI analysis is currently unavailable. Please join our waitlist to be notified when this feature is ready!"

// AnalysisProxy posts a chat payload to the analysis proxy endpoint.
type AnalysisProxy interface {
	Analyze(ctx context.Context, typ model.AnalysisType, payload *model.ChatRequest) (*model.AnalysisData, error)
}

// AnalysisService builds the vision prompts for design feedback, variation
// comparison and prompt suggestions.
type AnalysisService struct {
	proxy     AnalysisProxy
	chatModel string
	log       zerolog.Logger
}

func NewAnalysisService(proxy AnalysisProxy, chatModel string, log zerolog.Logger) *AnalysisService {
	if chatModel == "" {
		chatModel = "gpt-4o"
	}
	return &AnalysisService{
		proxy:     proxy,
		chatModel: chatModel,
		log:       log.With().Str("component", "analysis").Logger(),
	}
}

// AnalyzeDesign asks for art-director feedback on one generated design.
func (s *AnalysisService) AnalyzeDesign(ctx context.Context, req *model.AnalyzeDesignRequest) *model.AnalysisResult {
	return s.run(ctx, model.AnalysisSingle, s.singlePayload(req))
}

// CompareDesigns ranks two or more variations of the same prompt.
func (s *AnalysisService) CompareDesigns(ctx context.Context, req *model.CompareDesignsRequest) *model.AnalysisResult {
	return s.run(ctx, model.AnalysisCompare, s.comparePayload(req))
}

// SuggestPrompts turns an earlier analysis into three improved prompts.
func (s *AnalysisService) SuggestPrompts(ctx context.Context, req *model.SuggestPromptsRequest) *model.AnalysisResult {
	return s.run(ctx, model.AnalysisSuggest, s.suggestPayload(req))
}

func (s *AnalysisService) run(ctx context.Context, typ model.AnalysisType, payload *model.ChatRequest) *model.AnalysisResult {
	data, err := s.proxy.Analyze(ctx, typ, payload)
	if err != nil {
		s.log.Warn().Err(err).Str("type", string(typ)).Msg("analysis failed")
		return &model.AnalysisResult{
			Success:       false,
			Error:         MsgAnalysisUnavailable,
			OriginalError: err.Error(),
		}
	}

	return &model.AnalysisResult{
		Success:     true,
		Analysis:    data.Analysis,
		Comparison:  data.Comparison,
		Suggestions: data.Suggestions,
		Usage:       data.Usage,
	}
}

func (s *AnalysisService) singlePayload(req *model.AnalyzeDesignRequest) *model.ChatRequest {
	system := fmt.Sprintf(`You are an expert product design analyst and art director. Analyze the provided image and give constructive feedback on:

1. **Style Consistency**: How well does it match the requested style?
2. **Product Suitability**: How well would this work as a product design?
3. **Color & Contrast**: How well do the colors work for the specified product color (%s)?
4. **Composition**: Is the design well-centered and appropriately sized?
5. **Print Quality**: Would this translate well to fabric printing?
6. **Improvement Suggestions**: Specific ways to improve the prompt for better results.`, req.GarmentColor)

	user := fmt.Sprintf(`Please analyze this product design image:

**Original Prompt**: "%s"
**Requested Style**: %s
**Product Color**: %s

Provide detailed feedback on the design quality and specific suggestions for improvement.`, req.Prompt, req.Style, req.GarmentColor)

	return &model.ChatRequest{
		Model: s.chatModel,
		Messages: []model.ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: []model.ContentPart{
				{Type: "text", Text: user},
				imagePart(req.ImageURL),
			}},
		},
		MaxTokens:   1000,
		Temperature: 0.3,
	}
}

func (s *AnalysisService) comparePayload(req *model.CompareDesignsRequest) *model.ChatRequest {
	system := `You are an expert product design analyst. Compare multiple design variations and provide:

1. **Best Design**: Which design works best and why?
2. **Consistency Analysis**: How consistent are the designs with each other?
3. **Style Adherence**: Which design best matches the requested style?
4. **Ranking**: Rank the designs from best to worst with reasons.
5. **Pattern Recognition**: What patterns do you notice in the variations?`

	user := fmt.Sprintf(`Compare these %d design variations:

**Original Prompt**: "%s"
**Requested Style**: %s
**Product Color**: %s

Please analyze and compare all designs, providing specific feedback on which works best and why.`, len(req.Designs), req.Prompt, req.Style, req.GarmentColor)

	parts := []model.ContentPart{{Type: "text", Text: user}}
	for _, d := range req.Designs {
		parts = append(parts, imagePart(d.ImageURL))
	}

	return &model.ChatRequest{
		Model: s.chatModel,
		Messages: []model.ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: parts},
		},
		MaxTokens:   1500,
		Temperature: 0.3,
	}
}

func (s *AnalysisService) suggestPayload(req *model.SuggestPromptsRequest) *model.ChatRequest {
	system := `You are an expert prompt engineer for AI image generation. Based on the image analysis, create 3 improved prompt variations that would generate better, more consistent results.

Focus on:
1. **Specific Style Instructions**
2. **Technical Improvements**
3. **Consistency Keywords**
4. **Color Optimization**

Provide 3 distinct improved prompts, each with a brief explanation of the improvements made.`

	user := fmt.Sprintf(`Based on this analysis of the generated image:

**Original Prompt**: "%s"
**Style**: %s
**Analysis**: %s

Please provide 3 improved prompt variations that would generate better, more consistent results.`, req.Prompt, req.Style, req.Analysis)

	return &model.ChatRequest{
		Model: s.chatModel,
		Messages: []model.ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   800,
		Temperature: 0.4,
	}
}

func imagePart(url string) model.ContentPart {
	return model.ContentPart{
		Type:     "image_url",
		ImageURL: &model.ImageURLPart{URL: url, Detail: "high"},
	}
}
