package config

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Loader builds a Config by layering defaults, an optional YAML file, and
// environment variable overrides, in that priority order.
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("flowgate.yaml").
//	    WithEnvPrefix("FLOWGATE").
//	    Load()
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a Loader with the default env prefix FLOWGATE.
func NewLoader() *Loader {
	return &Loader{envPrefix: "FLOWGATE"}
}

// WithConfigPath sets the YAML file to load. Missing files are not an
// error; the defaults stand.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the prefix for environment overrides.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load resolves the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		switch {
		case os.IsNotExist(err):
			// Fall through to defaults.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", l.configPath, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", l.configPath, err)
			}
		}
	}

	l.applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides select fields from the environment. Only scalar
// top-level knobs are overridable; provider credentials come from their
// own well-known variables at adapter construction time.
func (l *Loader) applyEnv(cfg *Config) {
	if v := l.env("LLM_PRIMARY"); v != "" {
		cfg.LLM.Primary = v
	}
	if v := l.env("LLM_FALLBACKS"); v != "" {
		cfg.LLM.Fallbacks = splitList(v)
	}
	if v := l.env("QUALITY_THRESHOLD"); v != "" {
		var threshold float64
		if _, err := fmt.Sscanf(v, "%f", &threshold); err == nil {
			cfg.Quality.Threshold = threshold
		}
	}
	if v := l.env("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := l.env("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func (l *Loader) env(key string) string {
	return os.Getenv(l.envPrefix + "_" + key)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// BuildLogger constructs a zap logger from the log section.
func BuildLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
