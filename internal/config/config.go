package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	CORS       CORSConfig
	Upload     UploadConfig
	Model      ModelConfig
	Extraction ExtractionConfig
	OCR        OCRConfig
	Archive    ArchiveConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// UploadConfig limits accepted documents.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
}

// MaxBytes returns the upload limit in bytes.
func (u *UploadConfig) MaxBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// ModelProviderConfig holds settings for a single LLM provider.
type ModelProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
	MaxTokens    int    `mapstructure:"max_tokens"`
	BaseURL      string `mapstructure:"base_url"`
}

// ModelConfig holds LLM settings with multi-provider failover support.
type ModelConfig struct {
	// Legacy flat fields (backwards-compatible)
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
	MaxTokens    int    `mapstructure:"max_tokens"`

	// Multi-provider fields
	Primary   ModelProviderConfig `mapstructure:"primary"`
	Secondary ModelProviderConfig `mapstructure:"secondary"`
	Tertiary  ModelProviderConfig `mapstructure:"tertiary"`
}

// PrimaryConfig returns the primary provider config, falling back to legacy flat fields.
func (m *ModelConfig) PrimaryConfig() *ModelProviderConfig {
	if m.Primary.Provider != "" {
		return &m.Primary
	}
	return &ModelProviderConfig{
		Provider:     m.Provider,
		APIKey:       m.APIKey,
		DefaultModel: m.DefaultModel,
		TimeoutSecs:  m.TimeoutSecs,
		MaxTokens:    m.MaxTokens,
	}
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (m *ModelConfig) SecondaryConfig() *ModelProviderConfig {
	if m.Secondary.Provider != "" {
		return &m.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary provider config, or nil if not configured.
func (m *ModelConfig) TertiaryConfig() *ModelProviderConfig {
	if m.Tertiary.Provider != "" {
		return &m.Tertiary
	}
	return nil
}

// ProviderConfigs returns the configured providers in failover order.
func (m *ModelConfig) ProviderConfigs() []*ModelProviderConfig {
	cfgs := []*ModelProviderConfig{m.PrimaryConfig()}
	if s := m.SecondaryConfig(); s != nil {
		cfgs = append(cfgs, s)
	}
	if t := m.TertiaryConfig(); t != nil {
		cfgs = append(cfgs, t)
	}
	return cfgs
}

// ExtractionConfig tunes the retry protocol around the model.
type ExtractionConfig struct {
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// OCRConfig holds the external OCR tool settings.
type OCRConfig struct {
	Tesseract   string `mapstructure:"tesseract"`
	Pdftoppm    string `mapstructure:"pdftoppm"`
	Language    string `mapstructure:"language"`
	DPI         int    `mapstructure:"dpi"`
	MaxPages    int    `mapstructure:"max_pages"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// ArchiveConfig holds the optional S3 archive of processed documents.
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
	Attempts  int    `mapstructure:"attempts"`
}

// Load reads configuration from environment variables with the MARKSHEET_ prefix.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MARKSHEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 20)

	// Model defaults (legacy flat)
	v.SetDefault("model.provider", "gemini")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.default_model", "gemini-1.5-flash")
	v.SetDefault("model.timeout_secs", 60)
	v.SetDefault("model.max_tokens", 2048)

	// Model primary/secondary/tertiary defaults
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		v.SetDefault("model."+tier+".provider", "")
		v.SetDefault("model."+tier+".api_key", "")
		v.SetDefault("model."+tier+".default_model", "")
		v.SetDefault("model."+tier+".timeout_secs", 60)
		v.SetDefault("model."+tier+".max_tokens", 2048)
		v.SetDefault("model."+tier+".base_url", "")
	}

	// Extraction defaults
	v.SetDefault("extraction.retry_delay", "600ms")

	// OCR defaults
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.max_pages", 0)
	v.SetDefault("ocr.timeout_secs", 120)

	// Archive defaults
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.bucket", "marksheet-archive")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.prefix", "marksheets")
	v.SetDefault("archive.attempts", 3)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":             "MARKSHEET_SERVER_PORT",
		"server.read_timeout":     "MARKSHEET_SERVER_READ_TIMEOUT",
		"server.write_timeout":    "MARKSHEET_SERVER_WRITE_TIMEOUT",
		"server.environment":      "MARKSHEET_SERVER_ENVIRONMENT",
		"log.level":               "MARKSHEET_LOG_LEVEL",
		"log.format":              "MARKSHEET_LOG_FORMAT",
		"cors.allowed_origins":    "MARKSHEET_CORS_ALLOWED_ORIGINS",
		"upload.max_file_size_mb": "MARKSHEET_UPLOAD_MAX_FILE_SIZE_MB",
		"model.provider":          "MARKSHEET_MODEL_PROVIDER",
		"model.api_key":           "MARKSHEET_MODEL_API_KEY",
		"model.default_model":     "MARKSHEET_MODEL_DEFAULT_MODEL",
		"model.timeout_secs":      "MARKSHEET_MODEL_TIMEOUT_SECS",
		"model.max_tokens":        "MARKSHEET_MODEL_MAX_TOKENS",
		"extraction.retry_delay":  "MARKSHEET_EXTRACTION_RETRY_DELAY",
		"ocr.tesseract":           "MARKSHEET_OCR_TESSERACT",
		"ocr.pdftoppm":            "MARKSHEET_OCR_PDFTOPPM",
		"ocr.language":            "MARKSHEET_OCR_LANGUAGE",
		"ocr.dpi":                 "MARKSHEET_OCR_DPI",
		"ocr.max_pages":           "MARKSHEET_OCR_MAX_PAGES",
		"ocr.timeout_secs":        "MARKSHEET_OCR_TIMEOUT_SECS",
		"archive.enabled":         "MARKSHEET_ARCHIVE_ENABLED",
		"archive.region":          "MARKSHEET_ARCHIVE_REGION",
		"archive.bucket":          "MARKSHEET_ARCHIVE_BUCKET",
		"archive.endpoint":        "MARKSHEET_ARCHIVE_ENDPOINT",
		"archive.access_key":      "MARKSHEET_ARCHIVE_ACCESS_KEY",
		"archive.secret_key":      "MARKSHEET_ARCHIVE_SECRET_KEY",
		"archive.prefix":          "MARKSHEET_ARCHIVE_PREFIX",
		"archive.attempts":        "MARKSHEET_ARCHIVE_ATTEMPTS",
	}
	for _, tier := range []string{"primary", "secondary", "tertiary"} {
		for _, field := range []string{"provider", "api_key", "default_model", "timeout_secs", "max_tokens", "base_url"} {
			key := "model." + tier + "." + field
			envBindings[key] = "MARKSHEET_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		}
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if MARKSHEET_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("MARKSHEET_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Upload = UploadConfig{MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb")}

	cfg.Model = ModelConfig{
		Provider:     v.GetString("model.provider"),
		APIKey:       v.GetString("model.api_key"),
		DefaultModel: v.GetString("model.default_model"),
		TimeoutSecs:  v.GetInt("model.timeout_secs"),
		MaxTokens:    v.GetInt("model.max_tokens"),
		Primary:      providerConfig(v, "primary"),
		Secondary:    providerConfig(v, "secondary"),
		Tertiary:     providerConfig(v, "tertiary"),
	}

	cfg.Extraction = ExtractionConfig{RetryDelay: v.GetDuration("extraction.retry_delay")}

	cfg.OCR = OCRConfig{
		Tesseract:   v.GetString("ocr.tesseract"),
		Pdftoppm:    v.GetString("ocr.pdftoppm"),
		Language:    v.GetString("ocr.language"),
		DPI:         v.GetInt("ocr.dpi"),
		MaxPages:    v.GetInt("ocr.max_pages"),
		TimeoutSecs: v.GetInt("ocr.timeout_secs"),
	}

	cfg.Archive = ArchiveConfig{
		Enabled:   v.GetBool("archive.enabled"),
		Region:    v.GetString("archive.region"),
		Bucket:    v.GetString("archive.bucket"),
		Endpoint:  v.GetString("archive.endpoint"),
		AccessKey: v.GetString("archive.access_key"),
		SecretKey: v.GetString("archive.secret_key"),
		Prefix:    v.GetString("archive.prefix"),
		Attempts:  v.GetInt("archive.attempts"),
	}

	return cfg, nil
}

func providerConfig(v *viper.Viper, tier string) ModelProviderConfig {
	prefix := "model." + tier + "."
	return ModelProviderConfig{
		Provider:     v.GetString(prefix + "provider"),
		APIKey:       v.GetString(prefix + "api_key"),
		DefaultModel: v.GetString(prefix + "default_model"),
		TimeoutSecs:  v.GetInt(prefix + "timeout_secs"),
		MaxTokens:    v.GetInt(prefix + "max_tokens"),
		BaseURL:      v.GetString(prefix + "base_url"),
	}
}
