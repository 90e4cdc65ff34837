package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultDatabaseURL, cfg.Database.URL)
	assert.Equal(t, "tesseract", cfg.OCR.Backend)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Zero(t, cfg.LLM.Temperature)
	assert.Equal(t, "./uploads", cfg.Storage.UploadDir)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docextract.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  url: postgres://localhost/docs
  dial_timeout: 10s
ocr:
  dpi: 200
llm:
  model: gpt-4o
storage:
  upload_dir: /var/uploads
`), 0o644))

	t.Setenv("OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("POPPLER_PATH", "/opt/poppler/bin")
	t.Setenv("OCR_ENHANCE_IMAGES", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/docs", cfg.Database.URL)
	assert.Equal(t, 10*time.Second, cfg.Database.DialTimeout)
	assert.Equal(t, 200, cfg.OCR.DPI)
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.Model, "environment wins over the file")
	assert.Equal(t, "/opt/poppler/bin", cfg.OCR.PopplerPath)
	assert.True(t, cfg.OCR.EnhanceImages)
	assert.Equal(t, "/var/uploads", cfg.Storage.UploadDir)
}

func TestLoadConfig_DatabaseURLFallback(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:///./other.db")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite:///./other.db", cfg.Database.URL)

	t.Setenv("DB_URL", "postgres://db/primary")
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://db/primary", cfg.Database.URL)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "missing database url", mutate: func(c *Config) { c.Database.URL = " " }, wantErr: "database.url"},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "cohere" }, wantErr: "llm.provider"},
		{name: "unknown ocr backend", mutate: func(c *Config) { c.OCR.Backend = "easyocr" }, wantErr: "ocr.backend"},
		{name: "azure needs a key", mutate: func(c *Config) {
			c.OCR.Backend = "azure"
			c.OCR.AzureEndpoint = "https://vision.example.com"
		}, wantErr: "ocr.azure_key"},
		{name: "relative base url", mutate: func(c *Config) { c.LLM.BaseURL = "localhost:8080" }, wantErr: "llm.base_url"},
		{name: "min above max", mutate: func(c *Config) { c.Database.MinConns = 20 }, wantErr: "must not exceed max_conns"},
		{name: "negative prompt budget", mutate: func(c *Config) { c.LLM.MaxPromptTokens = -1 }, wantErr: "llm.max_prompt_tokens"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
