package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/flowgate/llm"
)

func TestLoader_Defaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Primary)
	assert.Equal(t, []string{"anthropic", "gemini"}, cfg.LLM.Fallbacks)
	assert.Equal(t, 0.7, cfg.Quality.Threshold)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Contains(t, cfg.LLM.Providers, "openai")
}

func TestLoader_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/no/such/file.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Primary)
}

func TestLoader_YAMLFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  primary: anthropic
  fallbacks: [gemini]
  providers:
    anthropic:
      model: claude-sonnet-4-5
      timeout: 30s
quality:
  threshold: 0.9
log:
  level: debug
  format: json
`), 0o644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Primary)
	assert.Equal(t, []string{"gemini"}, cfg.LLM.Fallbacks)
	assert.Equal(t, "claude-sonnet-4-5", cfg.LLM.Providers["anthropic"].Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Providers["anthropic"].Timeout)
	assert.Equal(t, 0.9, cfg.Quality.Threshold)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoader_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [not: a map"), 0o644))

	_, err := NewLoader().WithConfigPath(path).Load()
	require.Error(t, err)
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("FLOWGATE_LLM_PRIMARY", "gemini")
	t.Setenv("FLOWGATE_LLM_FALLBACKS", "openai, anthropic")
	t.Setenv("FLOWGATE_QUALITY_THRESHOLD", "0.85")
	t.Setenv("FLOWGATE_LOG_LEVEL", "warn")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Primary)
	assert.Equal(t, []string{"openai", "anthropic"}, cfg.LLM.Fallbacks)
	assert.Equal(t, 0.85, cfg.Quality.Threshold)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("CUSTOM_LLM_PRIMARY", "anthropic")
	t.Setenv("FLOWGATE_LLM_PRIMARY", "gemini")

	cfg, err := NewLoader().WithEnvPrefix("CUSTOM").Load()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Primary)
}

func TestLLMConfig_ManagerConfig(t *testing.T) {
	cfg := LLMConfig{
		Primary:   "openai",
		Fallbacks: []string{"gemini"},
		Providers: map[string]ProviderConfig{
			"openai": {APIKey: "k", Model: "gpt-4o", MaxTokens: 256},
		},
	}

	mcfg := cfg.ManagerConfig()
	assert.Equal(t, llm.ProviderType("openai"), mcfg.Primary)
	assert.Equal(t, []llm.ProviderType{"gemini"}, mcfg.Fallbacks)
	assert.Equal(t, "gpt-4o", mcfg.Providers["openai"].Model)
	assert.Equal(t, 256, mcfg.Providers["openai"].MaxTokens)
}

func TestBuildLogger(t *testing.T) {
	logger, err := BuildLogger(LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	require.NotNil(t, logger)

	// Unknown levels fall back to info rather than failing startup.
	logger, err = BuildLogger(LogConfig{Level: "nonsense"})
	require.NoError(t, err)
	require.NotNil(t, logger)
}
