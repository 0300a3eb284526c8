package ml

import (
	"context"
	"regexp"
	"strings"

	"github.com/arnavs06/HackNYU/internal/ecoscore"
	"github.com/arnavs06/HackNYU/internal/models"
)

var madeInPattern = regexp.MustCompile(`(?i)\b(?:made|manufactured|produced)\s+in\s+([^\n,;.]+)`)

// LocalModel extracts attributes from text with rules instead of a hosted
// model. It needs OCR text or page text; images alone are not supported.
type LocalModel struct {
	table *ecoscore.Table
}

// LocalModelFactory implements ModelFactory for local models
type LocalModelFactory struct {
	table *ecoscore.Table
}

// NewLocalModelFactory creates a new local model factory. A nil table uses
// the embedded impact table for certification lookups.
func NewLocalModelFactory(table *ecoscore.Table) *LocalModelFactory {
	return &LocalModelFactory{table: table}
}

// CreateModel creates a new local model instance
func (f *LocalModelFactory) CreateModel() (Model, error) {
	t := f.table
	if t == nil {
		t = ecoscore.DefaultTable()
	}
	return &LocalModel{table: t}, nil
}

// Load is a no-op for the local model
func (m *LocalModel) Load(ctx context.Context) error {
	return nil
}

// ExtractTag parses OCR text from a tag
func (m *LocalModel) ExtractTag(ctx context.Context, image []byte, ocrText string) (models.RawAttributes, error) {
	if strings.TrimSpace(ocrText) == "" {
		return models.RawAttributes{}, ErrUnavailable
	}
	return m.ExtractText(ocrText), nil
}

// ExtractProduct parses the visible text of a product page
func (m *LocalModel) ExtractProduct(ctx context.Context, page ProductPage) (models.RawAttributes, error) {
	if strings.TrimSpace(page.Text) == "" {
		return models.RawAttributes{}, ErrUnavailable
	}
	attrs := m.ExtractText(page.Text)
	attrs.ProductName = strings.TrimSpace(page.Title)
	return attrs, nil
}

// ExtractText pulls composition lines, a "made in" origin and recognized
// certifications out of free text.
func (m *LocalModel) ExtractText(text string) models.RawAttributes {
	attrs := models.RawAttributes{Certifications: []string{}}

	var compositionLines []string
	seenCert := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "%") {
			compositionLines = append(compositionLines, line)
		}
		if name, _, ok := m.table.Certification(line); ok && !seenCert[name] {
			seenCert[name] = true
			attrs.Certifications = append(attrs.Certifications, name)
		}
	}
	if len(compositionLines) > 0 {
		attrs.Composition = ecoscore.ParseComposition(strings.Join(compositionLines, ", "))
	}

	if match := madeInPattern.FindStringSubmatch(text); match != nil {
		attrs.Origin = normalizeOrigin(match[1])
	}
	return attrs
}

// Explain returns the template explanation
func (m *LocalModel) Explain(ctx context.Context, in ExplainInput) (string, error) {
	return FallbackExplanation(in), nil
}

// SummarizeStyle is not supported locally and returns an empty summary
func (m *LocalModel) SummarizeStyle(ctx context.Context, history []models.ScanResult) (string, error) {
	return "", nil
}

// Close is a no-op for the local model
func (m *LocalModel) Close() error {
	return nil
}
