package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	ML       MLConfig       `mapstructure:"ml"`
	Vision   VisionConfig   `mapstructure:"vision"`
	Lykdat   LykdatConfig   `mapstructure:"lykdat"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Impact   ImpactConfig   `mapstructure:"impact"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port       string `mapstructure:"port"`
	StaticDir  string `mapstructure:"static_dir"`
	Debug      bool   `mapstructure:"debug"`
	CORSOrigin string `mapstructure:"cors_origin"`
}

type DatabaseConfig struct {
	Driver        string `mapstructure:"driver"` // "sqlite" or "mongo"
	Path          string `mapstructure:"path"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

type MLConfig struct {
	Type            string `mapstructure:"type"` // "vertex", "gemini" or "local"
	ProjectID       string `mapstructure:"project_id"`
	Location        string `mapstructure:"location"`
	CredentialsFile string `mapstructure:"credentials_file"`
	APIKey          string `mapstructure:"api_key"`
	Model           string `mapstructure:"model"`
}

type VisionConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type LykdatConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	MaxResults int           `mapstructure:"max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type FetchConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	Headless bool          `mapstructure:"headless"`
	MaxChars int           `mapstructure:"max_chars"`
}

type StorageConfig struct {
	Bucket     string        `mapstructure:"bucket"`
	Region     string        `mapstructure:"region"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type ScanConfig struct {
	Concurrency   int           `mapstructure:"concurrency"`
	EnrichTimeout time.Duration `mapstructure:"enrich_timeout"`
	MinHistory    int           `mapstructure:"min_history"`
	HistoryLimit  int           `mapstructure:"history_limit"`
}

type CatalogConfig struct {
	Dir     string `mapstructure:"dir"`
	Pattern string `mapstructure:"pattern"`
}

type ImpactConfig struct {
	TablePath string `mapstructure:"table_path"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// envAliases lets the conventional provider variables fill config keys.
var envAliases = map[string][]string{
	"ml.project_id":       {"GOOGLE_PROJECT_ID"},
	"ml.location":         {"GOOGLE_LOCATION"},
	"ml.credentials_file": {"GOOGLE_CREDENTIALS_FILE"},
	"ml.api_key":          {"GEMINI_API_KEY"},
	"lykdat.api_key":      {"LYKDAT_API_KEY"},
	"auth.jwt_secret":     {"JWT_SECRET"},
	"storage.bucket":      {"AWS_BUCKET_NAME"},
	"storage.region":      {"AWS_REGION"},
	"database.mongo_uri":  {"MONGO_URI"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.static_dir", "./static")
	v.SetDefault("server.debug", false)
	v.SetDefault("server.cors_origin", "*")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "ecoscan.db")
	v.SetDefault("database.mongo_uri", "")
	v.SetDefault("database.mongo_database", "ecoscan")

	v.SetDefault("ml.type", "local")
	v.SetDefault("ml.project_id", "")
	v.SetDefault("ml.location", "us-central1")
	v.SetDefault("ml.credentials_file", "")
	v.SetDefault("ml.api_key", "")
	v.SetDefault("ml.model", "gemini-2.5-flash")

	v.SetDefault("vision.enabled", false)
	v.SetDefault("vision.credentials_file", "")

	v.SetDefault("lykdat.api_key", "")
	v.SetDefault("lykdat.base_url", "https://cloudapi.lykdat.com/v1")
	v.SetDefault("lykdat.max_results", 20)
	v.SetDefault("lykdat.timeout", 60*time.Second)

	v.SetDefault("fetch.timeout", 20*time.Second)
	v.SetDefault("fetch.headless", false)
	v.SetDefault("fetch.max_chars", 15000)

	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.presign_ttl", time.Hour)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("scan.concurrency", 4)
	v.SetDefault("scan.enrich_timeout", 45*time.Second)
	v.SetDefault("scan.min_history", 3)
	v.SetDefault("scan.history_limit", 50)

	v.SetDefault("catalog.dir", "")
	v.SetDefault("catalog.pattern", "**/*.yaml")

	v.SetDefault("impact.table_path", "")

	v.SetDefault("logging.level", "info")
}

// Load reads configuration from defaults, an optional JSON or YAML file and
// the environment, in increasing order of precedence. A .env file in the
// working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("ECOSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{"ECOSCAN_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that have no sensible fallback
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is not set")
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case "mongo":
		if c.Database.MongoURI == "" {
			return fmt.Errorf("database mongo_uri is required for mongo")
		}
	default:
		return fmt.Errorf("invalid database driver: %s. Must be 'sqlite' or 'mongo'", c.Database.Driver)
	}
	switch c.ML.Type {
	case "vertex", "gemini", "local":
	default:
		return fmt.Errorf("invalid ml type: %s. Must be 'vertex', 'gemini' or 'local'", c.ML.Type)
	}
	if c.ML.Type == "gemini" && c.ML.APIKey == "" {
		return fmt.Errorf("ml api_key is required for the gemini backend")
	}
	if c.Scan.Concurrency < 1 {
		return fmt.Errorf("scan concurrency must be at least 1")
	}
	if c.Scan.MinHistory < 1 {
		return fmt.Errorf("scan min_history must be at least 1")
	}
	if c.Lykdat.MaxResults < 1 || c.Lykdat.MaxResults > 40 {
		return fmt.Errorf("lykdat max_results must be within 1..40")
	}
	return nil
}

// Warnings lists settings that load cleanly but degrade scans
func (c *Config) Warnings() []string {
	var warnings []string
	if c.ML.Type == "local" && !c.Vision.Enabled {
		warnings = append(warnings, "local model without vision OCR cannot read tags, every scan scores neutral")
	}
	if c.Lykdat.APIKey == "" {
		warnings = append(warnings, "lykdat api key not set, alternatives come from the curated catalog")
	}
	return warnings
}

// GetConfigPath returns the path to the configuration file
func GetConfigPath() string {
	if path := os.Getenv("ECOSCAN_CONFIG"); path != "" {
		return path
	}

	configDir := "config"
	if _, err := os.Stat(configDir); err == nil {
		return filepath.Join(configDir, "config.json")
	}

	return "config.json"
}
