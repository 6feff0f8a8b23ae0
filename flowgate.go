// Package flowgate provides a top-level convenience entry point for
// running workflows with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/flowgate"
//
//	app, err := flowgate.New()
//	id, err := app.Engine.Start(ctx, "review", nil)
//
// This is a thin wrapper over the config, factory, and workflow packages;
// wiring them directly produces identical results. Use this package when
// you prefer a single call.
package flowgate

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/flowgate/config"
	"github.com/BaSui01/flowgate/llm"
	"github.com/BaSui01/flowgate/llm/factory"
	"github.com/BaSui01/flowgate/types"
	"github.com/BaSui01/flowgate/workflow"
)

// App bundles the pieces a typical embedding needs: a definition store, an
// execution engine, and the provider manager behind agent steps. Manager is
// nil when no provider credentials are present; agent steps then run in
// pass-through mode.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   *workflow.Store
	Engine  *workflow.Engine
	Manager *llm.Manager
}

// Option adjusts how New assembles the App.
type Option func(*options)

type options struct {
	configPath string
	logger     *zap.Logger
	engineOpts []workflow.Option
}

// WithConfigPath loads configuration from the given YAML file instead of
// relying on defaults and environment variables alone.
func WithConfigPath(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithLogger supplies a pre-built logger instead of one derived from the
// log configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithEngineOptions forwards options to the workflow engine, such as a
// custom agent executor.
func WithEngineOptions(opts ...workflow.Option) Option {
	return func(o *options) { o.engineOpts = append(o.engineOpts, opts...) }
}

// New loads configuration, builds the provider manager, and assembles a
// ready-to-use workflow engine. Missing provider credentials are not an
// error; the returned App simply has a nil Manager.
func New(opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	loader := config.NewLoader()
	if o.configPath != "" {
		loader = loader.WithConfigPath(o.configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger, err = config.BuildLogger(cfg.Log)
		if err != nil {
			return nil, err
		}
	}

	engineOpts := append([]workflow.Option{workflow.WithEventBuffer(cfg.Workflow.EventBuffer)}, o.engineOpts...)
	manager, err := factory.NewManager(cfg.LLM.ManagerConfig(), logger)
	switch {
	case err == nil:
		engineOpts = append(engineOpts, workflow.WithAgentExecutor(promptExecutor(manager)))
	case types.IsCode(err, types.ErrNoProvidersAvailable):
		manager = nil
	default:
		return nil, err
	}

	store := workflow.NewStore()
	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Engine:  workflow.NewEngine(store, logger, engineOpts...),
		Manager: manager,
	}, nil
}

// promptExecutor runs agent steps through the manager using the step's
// "prompt" and "system" config keys.
func promptExecutor(manager *llm.Manager) workflow.AgentExecutor {
	return func(ctx context.Context, step workflow.Step, state *workflow.State) (map[string]any, error) {
		prompt, _ := step.Config["prompt"].(string)
		if prompt == "" {
			return map[string]any{"status": "completed", "agent": step.ID}, nil
		}
		system, _ := step.Config["system"].(string)
		answer, err := manager.Prompt(ctx, system, prompt)
		if err != nil {
			return nil, err
		}
		return map[string]any{"response": answer}, nil
	}
}
