package ml

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gemini "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/arnavs06/HackNYU/internal/logging"
)

// GeminiModel implements Model on the Gemini API with an API key
type GeminiModel struct {
	generativeModel
	config GeminiConfig
	client *gemini.Client
}

// GeminiModelFactory implements ModelFactory for API-key Gemini models
type GeminiModelFactory struct {
	config GeminiConfig
	logger *slog.Logger
}

// NewGeminiModelFactory creates a new Gemini model factory
func NewGeminiModelFactory(config GeminiConfig, logger *slog.Logger) *GeminiModelFactory {
	if logger == nil {
		logger = logging.Discard()
	}
	return &GeminiModelFactory{config: config, logger: logger}
}

// CreateModel creates a new Gemini model instance
func (f *GeminiModelFactory) CreateModel() (Model, error) {
	m := &GeminiModel{config: f.config}
	m.generativeModel = generativeModel{gen: m, logger: f.logger.With("component", "gemini")}
	return m, nil
}

// Load creates the Gemini client
func (m *GeminiModel) Load(ctx context.Context) error {
	client, err := gemini.NewClient(ctx, option.WithAPIKey(m.config.APIKey))
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	m.client = client
	m.logger.Info("gemini model loaded", "model", m.config.ModelName)
	return nil
}

func (m *GeminiModel) generate(ctx context.Context, req request) (string, error) {
	if m.client == nil {
		return "", ErrModelNotLoaded
	}

	model := m.client.GenerativeModel(m.config.ModelName)
	model.SetTemperature(m.config.Temperature)
	model.SystemInstruction = &gemini.Content{Parts: []gemini.Part{gemini.Text(req.system)}}
	if req.json {
		model.ResponseMIMEType = jsonMIMEType
	}

	parts := []gemini.Part{gemini.Text(req.prompt)}
	if len(req.image) > 0 {
		parts = append(parts, gemini.ImageData("jpeg", req.image))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content generated")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(gemini.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no content generated")
	}
	return b.String(), nil
}

// Close releases the Gemini client
func (m *GeminiModel) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}
