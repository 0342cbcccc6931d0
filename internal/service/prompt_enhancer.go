package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/vibewear/api/internal/model"
)

const (
	technicalSpecs    = "High resolution, professional quality, optimized for printing, centered composition, clean edges, no background noise or artifacts."
	contentGuidelines = "no offensive content, no copyrighted images"

	backgroundForDark    = "Subject centered in frame, large and dominant, taking up most of the frame. Use bright, light colors and white elements that will stand out against a black background. Avoid dark colors, black elements, or low contrast designs. Ensure high contrast with light, vibrant colors."
	backgroundForLight   = "Subject centered in frame, large and dominant, taking up most of the frame. Use dark, bold colors and black elements that will stand out against a white background. Avoid light colors, white elements, or low contrast designs. Ensure high contrast with dark, vibrant colors."
	backgroundForNeutral = "Subject centered in frame, large and dominant, taking up most of the frame. Use contrasting colors that will stand out against the product background. Ensure good visibility and contrast."
)

// \s is ASCII only in Go, so \p{Z} covers NBSP and the other Unicode spaces.
var (
	disallowedChars = regexp.MustCompile(`[^\w\p{Z}\s.,!?'-]`)
	whitespaceRuns  = regexp.MustCompile(`[\p{Z}\s]+`)
)

// styleDescriptions is read-only after package init.
var styleDescriptions = map[model.StyleID]string{
	model.StyleCartoonBlocks: "3D cartoon illustration of a blocky game character. Simplified low-poly character design with cube-shaped head, cylindrical limbs, flat textures, and bright vibrant colors. Minimal facial features with expressive face. Stylized low-poly look with clean outlines and no complex shading. Simple background or flat white background. Designed in a generic blocky game art style. No photorealism, no realistic materials, no complex environments, no brand references.",
	model.StyleCyberpunk:     "Focus on the subject. Cyberpunk futuristic illustration with cinematic lighting and immersive depth. Dark neon-lit city environment with glowing signs, reflections on wet surfaces, mist and rain. Bright cyan, magenta, electric blue, and hot pink neon lights. Dynamic side lighting with strong shadows and color glow. Urban background with holographic billboards, flying particles, and futuristic architecture. Designed for bold poster or T-shirt print. No flat circuit patterns, no pure digital UI overlays, no abstract backgrounds. Focus on realistic lighting, depth, and cinematic composition.",
	model.StyleComic:         "catchy vintage manga comic style illustration that would look good on a poster, draw it in a 1960s Saturday-morning adventure style, Single-panel, similar to Pokemon or Digimon, dynamic composition, expressive character poses – thick uniform black ink outlines, flat sun-faded primary colours (sky-blue, warm ochre, golden yellow, cream highlights), subtle halftone texture, and dynamic motion lines. Shot at a slightly low angle so the characters break the frame edges. No modern 3-D shading, gradients, or photographic detail – keep it strictly flat-colour",
	model.StyleWatercolor:    "illustration in soft watercolor painting style with organic flowing aestheticsthat would look good on a poster. Gentle color bleeds, transparent layered washes, soft brush stroke textures, natural color transitions, dreamy atmospheric effects. Use flowing organic shapes with artistic spontaneity and natural color palettes like soft blues, gentle greens, and warm earth tones. Controlled bleeding effects.",
	model.StyleRealistic:     "Design in photorealistic style with detailed lifelike rendering. Looks good at a poster. High-quality photographic aesthetics, detailed textures, natural lighting and shadows, accurate proportions, realistic materials and surfaces. Use professional photography composition with crisp details and lifelike color accuracy.",
	model.StyleBlackAndWhite: "Black and white realistic vintage photograph, highly detailed, sharp focus, dramatic lighting with strong shadows, high contrast, retro aesthetic, centered composition, no background noise, plain background.",
	model.StyleBotanical:     "Hand-drawn botanical illustration with delicate line work and subtle shading. Detailed flowers, leaves, and stems in natural composition. Minimalist approach with clean lines, scientific illustration style, elegant and refined aesthetic.",
	model.StyleCartoonAvatar: "2D minimalistic cartoon character avatar with exaggerated features, clean white #ffffff background, large expressive eyes, clean bold outlines, bright saturated colors. Modern emoji/avatar style similar to Apple Memoji, friendly and approachable design",
	model.StyleChildrensBook: "2D flat Children's book illustration style with soft pastel colors like warm beige, soft blue, pastel green, whimsical characters, hand-painted texture, playful composition. Friendly and approachable aesthetic suitable for young audiences, storybook quality, would look good on a tshirt, white background.",
	model.StyleGrunge:        "Grunge rock poster style with distressed textures, rough edges, high contrast black, white with selective red accents. Raw, edgy aesthetic with worn textures and bold typography elements.",
	model.StyleVintageComic:  "Black and white vintage comic panel illustration, highly detailed, realistic rendering, heavy ink shading, bold lines, high contrast, comic speech bubbles in cartoon style where needed, square format, no color, no background noise, clean composition",
}

// EnhancePrompt expands a raw prompt into the full provider instruction. It
// is deterministic and never fails; unknown styles use the realistic entry.
func EnhancePrompt(prompt string, style model.StyleID, garmentColor string) string {
	return fmt.Sprintf("%s. Style: %s. Background: %s. Technical: %s. Content: %s",
		cleanPrompt(prompt),
		StyleDescription(style),
		BackgroundInstruction(garmentColor),
		technicalSpecs,
		contentGuidelines,
	)
}

func cleanPrompt(prompt string) string {
	clean := strings.TrimSpace(prompt)
	clean = disallowedChars.ReplaceAllString(clean, "")
	return whitespaceRuns.ReplaceAllString(clean, " ")
}

// StyleDescription returns the style clause for id, or the default style's.
func StyleDescription(id model.StyleID) string {
	if desc, ok := styleDescriptions[id]; ok {
		return desc
	}
	return styleDescriptions[model.DefaultStyle]
}

// BackgroundInstruction picks the contrast clause for a garment colour.
// Dark garments need light artwork and the reverse.
func BackgroundInstruction(garmentColor string) string {
	lower := strings.ToLower(garmentColor)
	switch {
	case strings.Contains(lower, "black"):
		return backgroundForDark
	case strings.Contains(lower, "white"):
		return backgroundForLight
	default:
		return backgroundForNeutral
	}
}

// IsKnownStyle reports whether id has its own table entry.
func IsKnownStyle(id model.StyleID) bool {
	_, ok := styleDescriptions[id]
	return ok
}

// Styles lists the catalogue sorted by id. The slice is a fresh copy.
func Styles() []model.StyleInfo {
	out := make([]model.StyleInfo, 0, len(styleDescriptions))
	for id, desc := range styleDescriptions {
		out = append(out, model.StyleInfo{ID: id, Description: desc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
