package ml

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"

	"github.com/arnavs06/HackNYU/internal/logging"
)

// VertexModel implements Model on Vertex AI
type VertexModel struct {
	generativeModel
	config VertexConfig
	client *genai.Client
}

// VertexModelFactory implements ModelFactory for Vertex AI models
type VertexModelFactory struct {
	config VertexConfig
	logger *slog.Logger
}

// NewVertexModelFactory creates a new Vertex AI model factory
func NewVertexModelFactory(config VertexConfig, logger *slog.Logger) *VertexModelFactory {
	if logger == nil {
		logger = logging.Discard()
	}
	return &VertexModelFactory{config: config, logger: logger}
}

// CreateModel creates a new Vertex AI model instance
func (f *VertexModelFactory) CreateModel() (Model, error) {
	m := &VertexModel{config: f.config}
	m.generativeModel = generativeModel{gen: m, logger: f.logger.With("component", "vertex")}
	return m, nil
}

// Load initializes the Vertex AI client
func (m *VertexModel) Load(ctx context.Context) error {
	opts := []option.ClientOption{}
	if m.config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(m.config.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, m.config.ProjectID, m.config.Location, opts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	m.client = client
	m.logger.Info("vertex model loaded", "model", m.config.ModelName, "location", m.config.Location)
	return nil
}

func (m *VertexModel) generate(ctx context.Context, req request) (string, error) {
	if m.client == nil {
		return "", ErrModelNotLoaded
	}

	// A model handle per call keeps SystemInstruction free of data races.
	model := m.client.GenerativeModel(m.config.ModelName)
	model.SetTemperature(m.config.Temperature)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.system)}}
	if req.json {
		model.ResponseMIMEType = jsonMIMEType
	}

	parts := []genai.Part{genai.Text(req.prompt)}
	if len(req.image) > 0 {
		parts = append(parts, genai.ImageData("jpeg", req.image))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response generated")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return b.String(), nil
}

// Close releases the Vertex AI client
func (m *VertexModel) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}
