package providers

import "os"

// Environment variable names holding the per-provider secret. Looked up at
// configuration time; an absent credential makes the provider unavailable
// at the registry level, never a hard failure.
const (
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
)

// ResolveAPIKey returns the configured key, falling back to the provider's
// environment variable.
func ResolveAPIKey(configured, envName string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv(envName)
}

// HasCredential reports whether a usable secret exists for the provider.
func HasCredential(configured, envName string) bool {
	return ResolveAPIKey(configured, envName) != ""
}
