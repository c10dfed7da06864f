package parser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prasadg/examsift/layout"
	"github.com/prasadg/examsift/llm"
)

// PageParser turns a rendered page-region image into a PageSection. Parse is
// total: it never returns an error. A failed call yields EmptySection, so one
// bad page degrades that page's output without stopping the batch.
type PageParser interface {
	Parse(ctx context.Context, imagePath string, hint layout.Kind) *PageSection
}

// VisionPageParser parses page images with a vision LLM.
type VisionPageParser struct {
	provider llm.Provider
	logger   *slog.Logger
}

func NewVisionPageParser(provider llm.Provider, logger *slog.Logger) *VisionPageParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisionPageParser{provider: provider, logger: logger}
}

func (p *VisionPageParser) Parse(ctx context.Context, imagePath string, hint layout.Kind) *PageSection {
	section, err := p.parse(ctx, imagePath, hint)
	if err != nil {
		p.logger.Warn("page parse failed, emitting empty section",
			"image", imagePath,
			"layout", string(hint),
			"error", err)
		return EmptySection()
	}
	return section
}

func (p *VisionPageParser) parse(ctx context.Context, imagePath string, hint layout.Kind) (*PageSection, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("reading page image: %w", err)
	}
	b64 := base64.StdEncoding.EncodeToString(data)

	resp, err := p.provider.ChatWithImages(ctx, llm.VisionChatRequest{
		Temperature: 0,
		MaxTokens:   4096,
		Messages: []llm.VisionMessage{
			{
				Role:    "system",
				Content: []llm.ContentPart{{Type: "text", Text: systemPrompt}},
			},
			{
				Role: "user",
				Content: []llm.ContentPart{
					{
						Type: "text",
						Text: hintFor(hint) + "\n\n" +
							"Parse this exam page. Return ONLY a single valid JSON object, no markdown, no preamble.",
					},
					{
						Type:     "image_url",
						ImageURL: &llm.ImageURL{URL: "data:image/png;base64," + b64},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vision request: %w", err)
	}

	section, err := decodeSection(resp.Content)
	if err != nil {
		return nil, err
	}
	return section, nil
}

// decodeSection extracts the JSON object from a model response and
// unmarshals it into a normalized PageSection. Models wrap output in
// markdown fences or preamble text often enough that we cut out the
// outermost {...} instead of decoding the raw response.
func decodeSection(raw string) (*PageSection, error) {
	text := strings.ReplaceAll(raw, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in response: %.200s", raw)
	}

	var section PageSection
	if err := json.Unmarshal([]byte(text[start:end+1]), &section); err != nil {
		return nil, fmt.Errorf("decoding page section: %w", err)
	}
	section.Normalize()
	return &section, nil
}
