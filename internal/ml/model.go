package ml

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arnavs06/HackNYU/internal/config"
	"github.com/arnavs06/HackNYU/internal/models"
)

var (
	// ErrModelNotLoaded is returned when a method is called before Load.
	ErrModelNotLoaded = errors.New("model not loaded")
	// ErrUnavailable is returned when a backend cannot serve a request kind,
	// for example the local model given only an image.
	ErrUnavailable = errors.New("capability unavailable")
)

// ProductPage is the visible text of a candidate's product page
type ProductPage struct {
	URL   string
	Title string
	Text  string
}

// ExplainInput carries what a narrator needs to explain a score
type ExplainInput struct {
	Score          int
	Grade          models.Grade
	Material       string
	Origin         string
	Certifications []string
	Brand          string
	ProductName    string
	Flags          []models.ImpactFlag
}

// Model extracts structured attributes from tags and product pages and
// writes the free-text narrative around a score.
type Model interface {
	// Load initializes the model with its configuration
	Load(ctx context.Context) error
	// ExtractTag reads a clothing tag. ocrText may be empty, in which case
	// the image itself is sent to the model.
	ExtractTag(ctx context.Context, image []byte, ocrText string) (models.RawAttributes, error)
	// ExtractProduct reads a product page
	ExtractProduct(ctx context.Context, page ProductPage) (models.RawAttributes, error)
	// Explain writes a short shopper-facing explanation of a score
	Explain(ctx context.Context, in ExplainInput) (string, error)
	// SummarizeStyle describes the style of a scan history in one sentence
	SummarizeStyle(ctx context.Context, history []models.ScanResult) (string, error)
	Close() error
}

// ModelFactory creates a new model instance based on configuration
type ModelFactory interface {
	// CreateModel creates a new model instance
	CreateModel() (Model, error)
}

// NewModel creates a model for the configured backend type
func NewModel(cfg config.MLConfig, logger *slog.Logger) (Model, error) {
	var factory ModelFactory

	switch cfg.Type {
	case "vertex":
		vc, err := NewVertexConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load vertex config: %w", err)
		}
		factory = NewVertexModelFactory(vc, logger)
	case "gemini":
		gc, err := NewGeminiConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load gemini config: %w", err)
		}
		factory = NewGeminiModelFactory(gc, logger)
	case "local":
		factory = NewLocalModelFactory(nil)
	default:
		return nil, fmt.Errorf("unsupported model type: %s", cfg.Type)
	}
	return factory.CreateModel()
}
