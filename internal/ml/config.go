package ml

import (
	"fmt"

	"github.com/arnavs06/HackNYU/internal/config"
)

const defaultModelName = "gemini-2.5-flash"

// BaseConfig holds settings shared by the hosted backends
type BaseConfig struct {
	ModelName   string
	Temperature float32
}

func newBaseConfig(cfg config.MLConfig) BaseConfig {
	name := cfg.Model
	if name == "" {
		name = defaultModelName
	}
	return BaseConfig{ModelName: name, Temperature: 0.2}
}

// VertexConfig holds configuration for the Vertex AI backend
type VertexConfig struct {
	BaseConfig
	ProjectID       string
	Location        string
	CredentialsFile string
}

// NewVertexConfig validates the Vertex settings of cfg
func NewVertexConfig(cfg config.MLConfig) (VertexConfig, error) {
	if cfg.ProjectID == "" {
		return VertexConfig{}, fmt.Errorf("project_id is required")
	}
	location := cfg.Location
	if location == "" {
		location = "us-central1"
	}
	return VertexConfig{
		BaseConfig:      newBaseConfig(cfg),
		ProjectID:       cfg.ProjectID,
		Location:        location,
		CredentialsFile: cfg.CredentialsFile,
	}, nil
}

// GeminiConfig holds configuration for the API-key Gemini backend
type GeminiConfig struct {
	BaseConfig
	APIKey string
}

// NewGeminiConfig validates the Gemini settings of cfg
func NewGeminiConfig(cfg config.MLConfig) (GeminiConfig, error) {
	if cfg.APIKey == "" {
		return GeminiConfig{}, fmt.Errorf("api_key is required")
	}
	return GeminiConfig{BaseConfig: newBaseConfig(cfg), APIKey: cfg.APIKey}, nil
}
