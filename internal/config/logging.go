package config

import "fmt"

// LoggingConfig controls the zap sinks built by logging.Initialize.
// File, when set, receives a JSON copy of everything written to stderr.
type LoggingConfig struct {
	Level      string          `yaml:"level" json:"level,omitempty"`
	Format     string          `yaml:"format" json:"format,omitempty"`
	File       string          `yaml:"file" json:"file,omitempty"`
	DebugMode  bool            `yaml:"debug_mode" json:"debug_mode,omitempty"`
	Categories map[string]bool `yaml:"categories" json:"categories,omitempty"`
}

// ValidLogLevels and ValidLogFormats list the accepted logging values.
var (
	ValidLogLevels  = []string{"debug", "info", "warn", "error"}
	ValidLogFormats = []string{"console", "json"}
)

func (c LoggingConfig) validate() error {
	if c.Level != "" && !contains(ValidLogLevels, c.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Level, ValidLogLevels)
	}
	if c.Format != "" && !contains(ValidLogFormats, c.Format) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.Format, ValidLogFormats)
	}
	return nil
}

// IsCategoryEnabled gates Debug output for one logger category. Nothing is
// enabled without debug_mode; with it, categories default to on.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	on, listed := c.Categories[category]
	return c.DebugMode && (on || !listed)
}
