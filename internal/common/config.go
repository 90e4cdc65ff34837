package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	OCR      OCRConfig      `yaml:"ocr"`
	LLM      LLMConfig      `yaml:"llm"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL              string        `yaml:"url"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Backend       string `yaml:"backend"` // tesseract | azure
	TesseractCmd  string `yaml:"tesseract_cmd"`
	TessdataDir   string `yaml:"tessdata_dir"`
	Lang          string `yaml:"lang"`
	PSM           int    `yaml:"psm"`
	PopplerPath   string `yaml:"poppler_path"`
	DPI           int    `yaml:"dpi"`
	MaxPages      int    `yaml:"max_pages"`
	EnhanceImages bool   `yaml:"enhance_images"`
	AzureEndpoint string `yaml:"azure_endpoint"`
	AzureKey      string `yaml:"azure_key"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider        string        `yaml:"provider"` // openai | bedrock
	Model           string        `yaml:"model"`
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	Temperature     float32       `yaml:"temperature"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxTokens       int           `yaml:"max_tokens"`
	MaxPromptTokens int           `yaml:"max_prompt_tokens"`
	BedrockModelID  string        `yaml:"bedrock_model_id"`
	AWSRegion       string        `yaml:"aws_region"`
}

// StorageConfig says where uploaded documents are kept.
type StorageConfig struct {
	UploadDir string `yaml:"upload_dir"`
	S3Bucket  string `yaml:"s3_bucket"`
	S3Prefix  string `yaml:"s3_prefix"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	DefaultDatabaseURL    = "sqlite:///./invoices.db"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultBedrockModelID = "anthropic.claude-3-haiku-20240307-v1:0"
)

// DefaultConfig returns the built-in defaults, before any file or environment overrides.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL:             DefaultDatabaseURL,
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		OCR: OCRConfig{
			Backend:      "tesseract",
			TesseractCmd: "tesseract",
			Lang:         "eng",
			DPI:          300,
		},
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          DefaultOpenAIModel,
			Timeout:        45 * time.Second,
			MaxTokens:      2000,
			BedrockModelID: DefaultBedrockModelID,
			AWSRegion:      "us-east-1",
		},
		Storage: StorageConfig{
			UploadDir: "./uploads",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig layers defaults, the optional YAML file at path, a .env file in
// the working directory and finally the process environment.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError(CodeValidation, "read config file "+path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, NewAppError(CodeValidation, "parse config file "+path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, NewAppError(CodeValidation, "load .env", err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Database.URL = getEnv("DB_URL", getEnv("DATABASE_URL", c.Database.URL))
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)

	c.OCR.Backend = getEnv("OCR_BACKEND", c.OCR.Backend)
	c.OCR.TesseractCmd = getEnv("TESSERACT_CMD", c.OCR.TesseractCmd)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.Lang = getEnv("TESSERACT_LANG", c.OCR.Lang)
	c.OCR.PSM = getEnvAsInt("TESSERACT_PSM", c.OCR.PSM)
	c.OCR.PopplerPath = getEnv("POPPLER_PATH", c.OCR.PopplerPath)
	c.OCR.DPI = getEnvAsInt("OCR_DPI", c.OCR.DPI)
	c.OCR.MaxPages = getEnvAsInt("OCR_MAX_PAGES", c.OCR.MaxPages)
	c.OCR.EnhanceImages = getEnvAsBool("OCR_ENHANCE_IMAGES", c.OCR.EnhanceImages)
	c.OCR.AzureEndpoint = getEnv("AZURE_VISION_ENDPOINT", c.OCR.AzureEndpoint)
	c.OCR.AzureKey = getEnv("AZURE_VISION_KEY", c.OCR.AzureKey)

	c.LLM.Provider = getEnv("LLM_PROVIDER", c.LLM.Provider)
	c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Temperature = getEnvAsFloat32("OPENAI_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", c.LLM.Timeout)
	c.LLM.MaxTokens = getEnvAsInt("LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.MaxPromptTokens = getEnvAsInt("LLM_MAX_PROMPT_TOKENS", c.LLM.MaxPromptTokens)
	c.LLM.BedrockModelID = getEnv("BEDROCK_MODEL_ID", c.LLM.BedrockModelID)
	c.LLM.AWSRegion = getEnv("AWS_REGION", c.LLM.AWSRegion)

	c.Storage.UploadDir = getEnv("UPLOAD_DIR", c.Storage.UploadDir)
	c.Storage.S3Bucket = getEnv("UPLOAD_S3_BUCKET", c.Storage.S3Bucket)
	c.Storage.S3Prefix = getEnv("UPLOAD_S3_PREFIX", c.Storage.S3Prefix)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration. Credentials are not required
// here; a missing API key surfaces as SERVICE_UNAVAILABLE at call time.
func (c *Config) Validate() error {
	v := NewValidator().
		Field("database.url", c.Database.URL, Required).
		Field("database.max_conns", c.Database.MaxConns, NonNegative).
		Field("database.min_conns", c.Database.MinConns, NonNegative).
		Field("ocr.backend", c.OCR.Backend, OneOf("tesseract", "azure")).
		Field("ocr.dpi", c.OCR.DPI, NonNegative).
		Field("ocr.max_pages", c.OCR.MaxPages, NonNegative).
		Field("llm.provider", c.LLM.Provider, OneOf("openai", "bedrock")).
		Field("llm.base_url", c.LLM.BaseURL, URL).
		Field("llm.max_prompt_tokens", c.LLM.MaxPromptTokens, NonNegative).
		Field("log.format", c.Log.Format, OneOf("text", "json")).
		Field("log.level", c.Log.Level, OneOf("debug", "info", "warn", "error"))
	if c.OCR.Backend == "azure" {
		v.Field("ocr.azure_endpoint", c.OCR.AzureEndpoint, Required, URL).
			Field("ocr.azure_key", c.OCR.AzureKey, Required)
	}
	if c.Storage.S3Bucket == "" {
		v.Field("storage.upload_dir", c.Storage.UploadDir, Required)
	}
	v.Check("database.min_conns", c.Database.MinConns,
		c.Database.MaxConns <= 0 || c.Database.MinConns <= c.Database.MaxConns,
		fmt.Sprintf("must not exceed max_conns (%d)", c.Database.MaxConns))
	return v.Error()
}
