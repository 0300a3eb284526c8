package ml

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/arnavs06/HackNYU/internal/models"
)

// MaxExplanationChars bounds generated explanations.
const MaxExplanationChars = 600

// maxPageChars bounds the page text sent for product extraction.
const maxPageChars = 15000

// jsonMIMEType asks a backend for a JSON-only response.
const jsonMIMEType = "application/json"

// request is one generation call. JSON requests expect a single object back.
type request struct {
	system string
	prompt string
	image  []byte
	json   bool
}

// generator is the single call a hosted backend has to provide.
type generator interface {
	generate(ctx context.Context, req request) (string, error)
}

// generativeModel implements the Model operations on top of a generator.
type generativeModel struct {
	gen    generator
	logger *slog.Logger
}

func (m *generativeModel) ExtractTag(ctx context.Context, image []byte, ocrText string) (models.RawAttributes, error) {
	var prompt string
	var img []byte
	if strings.TrimSpace(ocrText) != "" {
		prompt = fmt.Sprintf(tagTextPrompt, ocrText, tagJSONShape)
	} else if len(image) > 0 {
		prompt = fmt.Sprintf(tagImagePrompt, tagJSONShape)
		img = image
	} else {
		return models.RawAttributes{}, fmt.Errorf("no tag text or image supplied")
	}

	text, err := m.gen.generate(ctx, request{system: tagSystemPrompt, prompt: prompt, image: img, json: true})
	if err != nil {
		return models.RawAttributes{}, fmt.Errorf("failed to call ai: %w", err)
	}
	attrs, err := ParseAttributes(text)
	if err != nil {
		return models.RawAttributes{}, err
	}
	m.logger.Debug("tag extracted", "materials", len(attrs.Composition), "origin", attrs.Origin)
	return attrs, nil
}

func (m *generativeModel) ExtractProduct(ctx context.Context, page ProductPage) (models.RawAttributes, error) {
	if strings.TrimSpace(page.Text) == "" {
		return models.RawAttributes{}, fmt.Errorf("empty product page")
	}
	prompt := fmt.Sprintf(productPrompt, page.URL, page.Title, truncateRunes(page.Text, maxPageChars))
	text, err := m.gen.generate(ctx, request{system: productSystemPrompt, prompt: prompt, json: true})
	if err != nil {
		return models.RawAttributes{}, fmt.Errorf("failed to call ai: %w", err)
	}
	return ParseAttributes(text)
}

func (m *generativeModel) Explain(ctx context.Context, in ExplainInput) (string, error) {
	flags := make([]string, 0, len(in.Flags))
	for _, f := range in.Flags {
		flags = append(flags, fmt.Sprintf("%s (%s)", f.Label, f.Severity))
	}
	prompt := fmt.Sprintf(explainPrompt,
		in.Score, in.Grade,
		orDefault(in.Material, "unknown materials"),
		orDefault(in.Origin, "unknown origin"),
		orDefault(strings.Join(in.Certifications, ", "), "none found"),
		orDefault(in.ProductName, "unknown"),
		orDefault(in.Brand, "unknown"),
		orDefault(strings.Join(flags, ", "), "none"),
	)
	text, err := m.gen.generate(ctx, request{system: explainSystemPrompt, prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to call ai: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty explanation")
	}
	return truncateRunes(text, MaxExplanationChars), nil
}

func (m *generativeModel) SummarizeStyle(ctx context.Context, history []models.ScanResult) (string, error) {
	if len(history) == 0 {
		return "", nil
	}
	lines := make([]string, 0, len(history))
	for _, s := range history {
		lines = append(lines, fmt.Sprintf("- %s, %s, %s",
			orDefault(s.ProductName, "unnamed item"), orDefault(s.Brand, "unknown brand"), orDefault(s.Material, "unknown")))
	}
	text, err := m.gen.generate(ctx, request{system: styleSystemPrompt, prompt: fmt.Sprintf(stylePrompt, strings.Join(lines, "\n"))})
	if err != nil {
		return "", fmt.Errorf("failed to call ai: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// FallbackExplanation is used when no narrator is available.
func FallbackExplanation(in ExplainInput) string {
	certs := "no recognized certifications"
	if len(in.Certifications) > 0 {
		certs = "certifications " + strings.Join(in.Certifications, ", ")
	}
	return fmt.Sprintf("Eco grade %s (%d/100) reflects the estimated impact of %s, made in %s, with %s.",
		in.Grade, in.Score,
		orDefault(in.Material, "unknown materials"),
		orDefault(in.Origin, "an unknown country"),
		certs)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
