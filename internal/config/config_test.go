package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENAI_API_KEY", "GEMINI_API_KEY", "GENESYS_PROVIDER", "GENESYS_MODEL",
		"GENESYS_LLM_BASE_URL", "GENESYS_ADDR", "GENESYS_SCRATCH_DIR", "GENESYS_DB",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "GeneSys", cfg.Name)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "", cfg.LLM.Model)
	assert.Equal(t, "gpt-4o", cfg.LLM.ResolvedModel())
	assert.Equal(t, 100, cfg.Analysis.ORFMinLength)
	assert.False(t, cfg.Analysis.AllRecords)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	require.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	clearLLMEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "genesys.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Provider = "gemini"
	cfg.LLM.APIKey = "g-test"
	cfg.Analysis.AllRecords = true
	cfg.Store.Driver = "sqlite3"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini", loaded.LLM.Provider)
	assert.Equal(t, "g-test", loaded.LLM.APIKey)
	assert.True(t, loaded.Analysis.AllRecords)
	assert.Equal(t, "sqlite3", loaded.Store.Driver)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearLLMEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides_LLM(t *testing.T) {
	t.Run("OPENAI_API_KEY sets openai", func(t *testing.T) {
		clearLLMEnv(t)
		t.Setenv("OPENAI_API_KEY", "oa-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "oa-key", cfg.LLM.APIKey)
		assert.Equal(t, "openai", cfg.LLM.Provider)
	})

	t.Run("explicit gemini provider keeps its key", func(t *testing.T) {
		clearLLMEnv(t)
		t.Setenv("OPENAI_API_KEY", "oa-key")
		t.Setenv("GEMINI_API_KEY", "gm-key")

		cfg := &Config{LLM: LLMConfig{Provider: "gemini"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "gm-key", cfg.LLM.APIKey)
		assert.Equal(t, "gemini", cfg.LLM.Provider)
	})

	t.Run("GEMINI_API_KEY alone switches provider", func(t *testing.T) {
		clearLLMEnv(t)
		t.Setenv("GEMINI_API_KEY", "gm-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "gm-key", cfg.LLM.APIKey)
		assert.Equal(t, "gemini", cfg.LLM.Provider)
	})

	t.Run("GENESYS_* overrides", func(t *testing.T) {
		clearLLMEnv(t)
		t.Setenv("GENESYS_MODEL", "gpt-4o-mini")
		t.Setenv("GENESYS_LLM_BASE_URL", "http://localhost:11434/v1")
		t.Setenv("GENESYS_ADDR", ":9999")
		t.Setenv("GENESYS_DB", "/tmp/x.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
		assert.Equal(t, "http://localhost:11434/v1", cfg.LLM.BaseURL)
		assert.Equal(t, ":9999", cfg.Server.Addr)
		assert.Equal(t, "/tmp/x.db", cfg.Store.DatabasePath)
		assert.True(t, cfg.Store.Enabled)
	})
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("GENESYS_MODEL=from-file\nGENESYS_ADDR=:7070\n"), 0644))

	t.Setenv("GENESYS_MODEL", "from-env")
	t.Setenv("GENESYS_ADDR", "")
	os.Unsetenv("GENESYS_ADDR")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-env", os.Getenv("GENESYS_MODEL"))
	assert.Equal(t, ":7070", os.Getenv("GENESYS_ADDR"))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"provider", func(c *Config) { c.LLM.Provider = "llama" }},
		{"temperature", func(c *Config) { c.LLM.Temperature = 3 }},
		{"driver", func(c *Config) { c.Store.Enabled = true; c.Store.Driver = "postgres" }},
		{"orf", func(c *Config) { c.Analysis.ORFMinLength = 0 }},
		{"upload", func(c *Config) { c.Server.MaxUploadBytes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 60*time.Second, cfg.GetLLMTimeout())

	cfg.LLM.Timeout = "5s"
	assert.Equal(t, 5*time.Second, cfg.GetLLMTimeout())

	cfg.LLM.Timeout = "soon"
	assert.Equal(t, 60*time.Second, cfg.GetLLMTimeout())

	cfg.Server.ReadTimeout = "-1s"
	assert.Equal(t, 30*time.Second, cfg.GetReadTimeout())
}

func TestLLMConfig_ResolvedModel(t *testing.T) {
	assert.Equal(t, "gemini-2.5-flash", LLMConfig{Provider: "gemini"}.ResolvedModel())
	assert.Equal(t, "gpt-4o", LLMConfig{Provider: "openai"}.ResolvedModel())
	assert.Equal(t, "custom", LLMConfig{Provider: "openai", Model: "custom"}.ResolvedModel())
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	lc := LoggingConfig{}
	assert.False(t, lc.IsCategoryEnabled("dispatch"))

	lc.DebugMode = true
	assert.True(t, lc.IsCategoryEnabled("dispatch"))

	lc.Categories = map[string]bool{"dispatch": false}
	assert.False(t, lc.IsCategoryEnabled("dispatch"))
	assert.True(t, lc.IsCategoryEnabled("tools"))

	lc.DebugMode = false
	assert.False(t, lc.IsCategoryEnabled("tools"))
}

func TestLoggingConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Logging.Level = "verbose"
	assert.ErrorContains(t, cfg.Validate(), "invalid log level")

	cfg = DefaultConfig()
	cfg.Logging.Format = "xml"
	assert.ErrorContains(t, cfg.Validate(), "invalid log format")

	cfg = DefaultConfig()
	cfg.Logging = LoggingConfig{File: "/var/log/genesys.log"}
	assert.NoError(t, cfg.Validate())
}
