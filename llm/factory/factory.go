// Package factory wires the built-in provider adapters into an
// llm.Registry. It imports the adapter sub-packages and maps provider
// types to their constructors, breaking the import cycle that would occur
// if this logic lived in the llm package directly.
package factory

import (
	"go.uber.org/zap"

	"github.com/BaSui01/flowgate/llm"
	"github.com/BaSui01/flowgate/llm/providers/anthropic"
	"github.com/BaSui01/flowgate/llm/providers/gemini"
	"github.com/BaSui01/flowgate/llm/providers/openai"
)

// NewRegistry returns a Registry with the openai, anthropic, and gemini
// adapters registered.
func NewRegistry(logger *zap.Logger) *llm.Registry {
	r := llm.NewRegistry(logger)

	r.Register(llm.ProviderOpenAI, llm.Entry{
		New: func(cfg llm.ProviderConfig, logger *zap.Logger) (llm.Provider, error) {
			return openai.New(cfg, logger), nil
		},
		Available: openai.Available,
	})
	r.Register(llm.ProviderAnthropic, llm.Entry{
		New: func(cfg llm.ProviderConfig, logger *zap.Logger) (llm.Provider, error) {
			return anthropic.New(cfg, logger), nil
		},
		Available: anthropic.Available,
	})
	r.Register(llm.ProviderGemini, llm.Entry{
		New: func(cfg llm.ProviderConfig, logger *zap.Logger) (llm.Provider, error) {
			return gemini.New(cfg, logger), nil
		},
		Available: gemini.Available,
	})

	return r
}

// NewManager builds a Registry with the built-in adapters and initializes
// a Manager from the given configuration.
func NewManager(cfg llm.ManagerConfig, logger *zap.Logger) (*llm.Manager, error) {
	return llm.NewManager(NewRegistry(logger), cfg, logger)
}
