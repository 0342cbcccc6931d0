package service

import (
	"strings"
	"testing"

	"github.com/vibewear/api/internal/model"
)

func TestEnhancePromptFullFormat(t *testing.T) {
	got := EnhancePrompt("  a red   fox  ", model.StyleRealistic, "Black")
	want := "a red fox. Style: " + styleDescriptions[model.StyleRealistic] +
		". Background: " + backgroundForDark +
		". Technical: " + technicalSpecs +
		". Content: " + contentGuidelines
	if got != want {
		t.Errorf("EnhancePrompt mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestEnhancePromptEveryStyle(t *testing.T) {
	styles := []model.StyleID{
		model.StyleCartoonBlocks, model.StyleCyberpunk, model.StyleComic,
		model.StyleWatercolor, model.StyleRealistic, model.StyleBlackAndWhite,
		model.StyleBotanical, model.StyleCartoonAvatar, model.StyleChildrensBook,
		model.StyleGrunge, model.StyleVintageComic,
	}
	if len(styles) != len(styleDescriptions) {
		t.Fatalf("style table has %d entries, test covers %d", len(styleDescriptions), len(styles))
	}

	for _, id := range styles {
		t.Run(string(id), func(t *testing.T) {
			if !IsKnownStyle(id) {
				t.Fatalf("style %q missing from table", id)
			}
			got := EnhancePrompt("logo", id, "Navy")
			want := "logo. Style: " + styleDescriptions[id] + ". Background: " + backgroundForNeutral +
				". Technical: " + technicalSpecs + ". Content: " + contentGuidelines
			if got != want {
				t.Errorf("unexpected prompt for %s:\n%s", id, got)
			}
		})
	}
}

func TestEnhancePromptUnknownStyleFallsBack(t *testing.T) {
	for _, id := range []model.StyleID{"", "steampunk", "REALISTIC"} {
		got := EnhancePrompt("a cat", id, "Red")
		want := EnhancePrompt("a cat", model.StyleRealistic, "Red")
		if got != want {
			t.Errorf("style %q did not fall back to realistic", id)
		}
	}
}

func TestEnhancePromptDeterministic(t *testing.T) {
	a := EnhancePrompt("Sunset over dunes!", model.StyleWatercolor, "Pure White")
	for i := 0; i < 50; i++ {
		if b := EnhancePrompt("Sunset over dunes!", model.StyleWatercolor, "Pure White"); b != a {
			t.Fatalf("run %d produced a different prompt", i)
		}
	}
}

func TestBackgroundInstruction(t *testing.T) {
	cases := []struct {
		color string
		want  string
	}{
		{"Jet Black", backgroundForDark},
		{"BLACK", backgroundForDark},
		{"Pure White", backgroundForLight},
		{"off-white", backgroundForLight},
		{"Navy", backgroundForNeutral},
		{"", backgroundForNeutral},
		// black wins when both appear
		{"Black & White stripes", backgroundForDark},
	}
	for _, tc := range cases {
		if got := BackgroundInstruction(tc.color); got != tc.want {
			t.Errorf("BackgroundInstruction(%q) picked the wrong clause", tc.color)
		}
	}

	if !strings.Contains(BackgroundInstruction("Jet Black"), "bright, light colors") {
		t.Error("dark garments should ask for light imagery")
	}
	if !strings.Contains(BackgroundInstruction("Pure White"), "dark, bold colors") {
		t.Error("light garments should ask for dark imagery")
	}
}

func TestCleanPrompt(t *testing.T) {
	cases := map[string]string{
		"  hello   world  ":         "hello world",
		"cat <script>alert</script>": "cat scriptalertscript",
		"it's a dog-day, right?!":    "it's a dog-day, right?!",
		"line\nbreak\ttab":           "line break tab",
		"emoji 🦊 fox":                "emoji fox",
		"50% off & $5":              "50 off 5",
		"a\u00a0red\u00a0fox":       "a red fox",
		"wide\u3000\u2003gap":       "wide gap",
	}
	for in, want := range cases {
		if got := cleanPrompt(in); got != want {
			t.Errorf("cleanPrompt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStylesSortedCopy(t *testing.T) {
	list := Styles()
	if len(list) != 11 {
		t.Fatalf("expected 11 styles, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Errorf("styles not sorted at %d", i)
		}
	}

	list[0].Description = "mutated"
	if StyleDescription(list[0].ID) == "mutated" {
		t.Error("Styles must not expose the table")
	}
}
