package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marksheet/internal/config"
)

func TestModelConfig_PrimaryConfig_LegacyFallback(t *testing.T) {
	cfg := config.ModelConfig{
		Provider:     "claude",
		APIKey:       "sk-legacy",
		DefaultModel: "claude-3-5-haiku-latest",
		TimeoutSecs:  30,
		MaxTokens:    1024,
	}

	primary := cfg.PrimaryConfig()

	assert.Equal(t, "claude", primary.Provider)
	assert.Equal(t, "sk-legacy", primary.APIKey)
	assert.Equal(t, "claude-3-5-haiku-latest", primary.DefaultModel)
	assert.Equal(t, 30, primary.TimeoutSecs)
	assert.Equal(t, 1024, primary.MaxTokens)
}

func TestModelConfig_PrimaryConfig_ExplicitPrimary(t *testing.T) {
	cfg := config.ModelConfig{
		Provider: "legacy-should-be-ignored",
		Primary: config.ModelProviderConfig{
			Provider:     "gemini",
			APIKey:       "gk-primary",
			DefaultModel: "gemini-1.5-pro",
		},
	}

	primary := cfg.PrimaryConfig()

	assert.Equal(t, "gemini", primary.Provider)
	assert.Equal(t, "gk-primary", primary.APIKey)
	assert.Equal(t, "gemini-1.5-pro", primary.DefaultModel)
}

func TestModelConfig_SecondaryAndTertiary_NotConfigured(t *testing.T) {
	cfg := config.ModelConfig{Provider: "gemini", APIKey: "gk"}

	assert.Nil(t, cfg.SecondaryConfig())
	assert.Nil(t, cfg.TertiaryConfig())
	assert.Len(t, cfg.ProviderConfigs(), 1)
}

func TestModelConfig_ProviderConfigs_Order(t *testing.T) {
	cfg := config.ModelConfig{
		Primary:   config.ModelProviderConfig{Provider: "gemini", APIKey: "a"},
		Secondary: config.ModelProviderConfig{Provider: "claude", APIKey: "b"},
		Tertiary:  config.ModelProviderConfig{Provider: "openai", APIKey: "c", DefaultModel: "gpt-4o"},
	}

	cfgs := cfg.ProviderConfigs()

	require.Len(t, cfgs, 3)
	assert.Equal(t, "gemini", cfgs[0].Provider)
	assert.Equal(t, "claude", cfgs[1].Provider)
	assert.Equal(t, "openai", cfgs[2].Provider)
	assert.Equal(t, "gpt-4o", cfgs[2].DefaultModel)
}

func TestModelConfig_ProviderConfigs_TertiaryWithoutSecondary(t *testing.T) {
	cfg := config.ModelConfig{
		Primary:  config.ModelProviderConfig{Provider: "gemini"},
		Tertiary: config.ModelProviderConfig{Provider: "openai"},
	}

	cfgs := cfg.ProviderConfigs()

	require.Len(t, cfgs, 2)
	assert.Equal(t, "openai", cfgs[1].Provider)
}

func TestUploadConfig_MaxBytes(t *testing.T) {
	u := config.UploadConfig{MaxFileSizeMB: 20}
	assert.Equal(t, int64(20*1024*1024), u.MaxBytes())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 180*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, int64(20), cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, "gemini", cfg.Model.PrimaryConfig().Provider)
	assert.Equal(t, 600*time.Millisecond, cfg.Extraction.RetryDelay)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, 3, cfg.Archive.Attempts)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MARKSHEET_SERVER_PORT", ":9090")
	t.Setenv("MARKSHEET_EXTRACTION_RETRY_DELAY", "1s")
	t.Setenv("MARKSHEET_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("MARKSHEET_MODEL_PRIMARY_PROVIDER", "claude")
	t.Setenv("MARKSHEET_MODEL_PRIMARY_API_KEY", "sk-primary")
	t.Setenv("MARKSHEET_MODEL_SECONDARY_PROVIDER", "openai")
	t.Setenv("MARKSHEET_MODEL_SECONDARY_BASE_URL", "http://localhost:1234/v1")
	t.Setenv("MARKSHEET_ARCHIVE_ENABLED", "true")
	t.Setenv("MARKSHEET_OCR_MAX_PAGES", "4")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, time.Second, cfg.Extraction.RetryDelay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)

	cfgs := cfg.Model.ProviderConfigs()
	require.Len(t, cfgs, 2)
	assert.Equal(t, "claude", cfgs[0].Provider)
	assert.Equal(t, "sk-primary", cfgs[0].APIKey)
	assert.Equal(t, "openai", cfgs[1].Provider)
	assert.Equal(t, "http://localhost:1234/v1", cfgs[1].BaseURL)
	assert.Equal(t, 2048, cfgs[1].MaxTokens)

	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, 4, cfg.OCR.MaxPages)
}

func TestLoad_PlatformPort(t *testing.T) {
	t.Setenv("PORT", "5000")
	t.Setenv("MARKSHEET_SERVER_PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Port)
}
