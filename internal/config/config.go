// Package config loads the server configuration from a JSON file. All fields
// are optional pointers so a partial config file overrides only what it
// names; the Get* methods supply defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root server configuration. The schema matches the flags of
// cmd/candlr so the same values can come from either source.
type Config struct {
	// Server params
	ListenAddr     *string `json:"listen_addr,omitempty"`
	RequestTimeout *string `json:"request_timeout,omitempty"` // duration string like "120s"

	// Storage params
	DBPath        *string `json:"db_path,omitempty"`
	MigrationsDir *string `json:"migrations_dir,omitempty"`
	ImageLogDir   *string `json:"image_log_dir,omitempty"` // empty disables capture

	// Image model params
	GenAIEndpoint *string `json:"genai_endpoint,omitempty"`
	GenAIModel    *string `json:"genai_model,omitempty"`
	GenAIAPIKey   *string `json:"genai_api_key,omitempty"` // falls back to GEMINI_API_KEY

	// Mesh pipeline params
	MaxResolution    *int     `json:"max_resolution,omitempty"`
	GaussianSigma    *float64 `json:"gaussian_sigma,omitempty"`
	SmoothLambda     *float64 `json:"smooth_lambda,omitempty"`
	SmoothIterations *int     `json:"smooth_iterations,omitempty"`
}

// Empty returns a Config with all fields unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. The file must have a .json
// extension and stay under the max file size. Fields omitted from the file
// keep their defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.RequestTimeout != nil && *c.RequestTimeout != "" {
		if _, err := time.ParseDuration(*c.RequestTimeout); err != nil {
			return fmt.Errorf("invalid request_timeout '%s': %w", *c.RequestTimeout, err)
		}
	}
	if c.MaxResolution != nil && *c.MaxResolution < 2 {
		return fmt.Errorf("max_resolution must be at least 2, got %d", *c.MaxResolution)
	}
	if c.GaussianSigma != nil && *c.GaussianSigma < 0 {
		return fmt.Errorf("gaussian_sigma must be non-negative, got %f", *c.GaussianSigma)
	}
	if c.SmoothLambda != nil && (*c.SmoothLambda < 0 || *c.SmoothLambda > 1) {
		return fmt.Errorf("smooth_lambda must be between 0 and 1, got %f", *c.SmoothLambda)
	}
	if c.SmoothIterations != nil && *c.SmoothIterations < 0 {
		return fmt.Errorf("smooth_iterations must be non-negative, got %d", *c.SmoothIterations)
	}
	return nil
}

// GetListenAddr returns the listen address or the default.
func (c *Config) GetListenAddr() string {
	if c.ListenAddr == nil || *c.ListenAddr == "" {
		return ":8080"
	}
	return *c.ListenAddr
}

// GetRequestTimeout parses and returns the request timeout.
func (c *Config) GetRequestTimeout() time.Duration {
	if c.RequestTimeout == nil || *c.RequestTimeout == "" {
		return 120 * time.Second
	}
	d, err := time.ParseDuration(*c.RequestTimeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetDBPath returns the history database path or the default.
func (c *Config) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "candlr.db"
	}
	return *c.DBPath
}

// GetMigrationsDir returns the migrations directory or the default.
func (c *Config) GetMigrationsDir() string {
	if c.MigrationsDir == nil || *c.MigrationsDir == "" {
		return "migrations"
	}
	return *c.MigrationsDir
}

// GetImageLogDir returns the capture directory; empty disables capture.
func (c *Config) GetImageLogDir() string {
	if c.ImageLogDir == nil {
		return ""
	}
	return *c.ImageLogDir
}

// GetGenAIEndpoint returns the image model endpoint; empty means the model
// is not configured and fallbacks apply.
func (c *Config) GetGenAIEndpoint() string {
	if c.GenAIEndpoint == nil {
		return ""
	}
	return *c.GenAIEndpoint
}

// GetGenAIModel returns the image model identifier or the default.
func (c *Config) GetGenAIModel() string {
	if c.GenAIModel == nil || *c.GenAIModel == "" {
		return "gemini-2.5-flash-image"
	}
	return *c.GenAIModel
}

// GetGenAIAPIKey returns the API key, falling back to GEMINI_API_KEY.
func (c *Config) GetGenAIAPIKey() string {
	if c.GenAIAPIKey != nil && *c.GenAIAPIKey != "" {
		return *c.GenAIAPIKey
	}
	return os.Getenv("GEMINI_API_KEY")
}

// GetMaxResolution returns the heightfield resolution ceiling.
func (c *Config) GetMaxResolution() int {
	if c.MaxResolution == nil {
		return 500
	}
	return *c.MaxResolution
}

// GetGaussianSigma returns the depth map blur sigma.
func (c *Config) GetGaussianSigma() float64 {
	if c.GaussianSigma == nil {
		return 2.0
	}
	return *c.GaussianSigma
}

// GetSmoothLambda returns the Laplacian smoothing factor.
func (c *Config) GetSmoothLambda() float64 {
	if c.SmoothLambda == nil {
		return 0.5
	}
	return *c.SmoothLambda
}

// GetSmoothIterations returns the Laplacian smoothing pass count.
func (c *Config) GetSmoothIterations() int {
	if c.SmoothIterations == nil {
		return 3
	}
	return *c.SmoothIterations
}
