package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the file name searched for when no --config flag is given.
const DefaultConfigFile = "genesys.yaml"

// Config holds all GeneSys configuration.
type Config struct {
	Name string `yaml:"name"`

	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Store    StoreConfig    `yaml:"store"`
	Usage    UsageConfig    `yaml:"usage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	ScratchDir     string `yaml:"scratch_dir"` // parent of per-request scratch directories; empty = os.TempDir()
	ReadTimeout    string `yaml:"read_timeout"`
	WriteTimeout   string `yaml:"write_timeout"`
}

// AnalysisConfig configures the sequence toolkit defaults.
type AnalysisConfig struct {
	ORFMinLength int  `yaml:"orf_min_length"`
	AllRecords   bool `yaml:"all_records"` // operate on every record instead of the first
}

// StoreConfig configures the upload archive.
type StoreConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Driver       string `yaml:"driver"` // sqlite (pure Go) or sqlite3 (cgo)
	DatabasePath string `yaml:"database_path"`
}

// UsageConfig configures token accounting.
type UsageConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name: "GeneSys",

		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			MaxUploadBytes: 32 << 20,
			ReadTimeout:    "30s",
			WriteTimeout:   "90s",
		},

		LLM: LLMConfig{
			Provider:    "openai",
			Timeout:     "60s",
			Temperature: 0.3,
		},

		Analysis: AnalysisConfig{
			ORFMinLength: 100,
		},

		Store: StoreConfig{
			Enabled:      false,
			Driver:       "sqlite",
			DatabasePath: filepath.Join(".genesys", "uploads.db"),
		},

		Usage: UsageConfig{
			Enabled: true,
			Path:    filepath.Join(".genesys", "usage.json"),
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file is not an error;
// defaults are used instead. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Variables that are already set keep their value. Missing files
// are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// An explicit provider keeps its own key; otherwise the first key found wins.
	openaiKey := os.Getenv("OPENAI_API_KEY")
	geminiKey := os.Getenv("GEMINI_API_KEY")
	switch {
	case c.LLM.Provider == "gemini" && geminiKey != "":
		c.LLM.APIKey = geminiKey
	case c.LLM.Provider == "openai" && openaiKey != "":
		c.LLM.APIKey = openaiKey
	case openaiKey != "":
		c.LLM.APIKey = openaiKey
		c.LLM.Provider = "openai"
	case geminiKey != "":
		c.LLM.APIKey = geminiKey
		c.LLM.Provider = "gemini"
	}

	if v := os.Getenv("GENESYS_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("GENESYS_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("GENESYS_LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("GENESYS_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("GENESYS_SCRATCH_DIR"); v != "" {
		c.Server.ScratchDir = v
	}
	if v := os.Getenv("GENESYS_DB"); v != "" {
		c.Store.DatabasePath = v
		c.Store.Enabled = true
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 60*time.Second)
}

// GetReadTimeout returns the HTTP read timeout.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout returns the HTTP write timeout.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 90*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"openai", "gemini"}

// ValidDrivers lists the database/sql driver names the archive accepts.
var ValidDrivers = []string{"sqlite", "sqlite3"}

// Validate validates the configuration. A missing API key is not an error:
// the deterministic paths work without a model.
func (c *Config) Validate() error {
	if !contains(ValidProviders, c.LLM.Provider) {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("invalid LLM temperature: %v (must be within [0, 2])", c.LLM.Temperature)
	}
	if c.Store.Enabled && !contains(ValidDrivers, c.Store.Driver) {
		return fmt.Errorf("invalid store driver: %s (valid: %v)", c.Store.Driver, ValidDrivers)
	}
	if c.Analysis.ORFMinLength < 1 {
		return fmt.Errorf("invalid orf_min_length: %d", c.Analysis.ORFMinLength)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid max_upload_bytes: %d", c.Server.MaxUploadBytes)
	}
	return c.Logging.validate()
}

// HasModel reports whether a language model is configured.
func (c *Config) HasModel() bool {
	return c.LLM.APIKey != ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
