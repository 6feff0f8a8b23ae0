// Command flowgate runs workflow definitions from the terminal, pausing
// for human input on the console and dispatching agent steps through the
// configured LLM providers.
//
// Usage:
//
//	flowgate run --workflow wf.yaml           # run a workflow interactively
//	flowgate run --config config.yaml ...     # with an explicit config file
//	flowgate assess --file draft.md           # score content quality
//	flowgate providers                        # list providers and health
//	flowgate version                          # show version information
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/BaSui01/flowgate/config"
	"github.com/BaSui01/flowgate/hitl"
	"github.com/BaSui01/flowgate/llm"
	"github.com/BaSui01/flowgate/llm/factory"
	"github.com/BaSui01/flowgate/quality"
	"github.com/BaSui01/flowgate/types"
	"github.com/BaSui01/flowgate/workflow"
)

// Injected at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runWorkflow(os.Args[2:])
	case "assess":
		runAssess(os.Args[2:])
	case "providers":
		runProviders(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runWorkflow(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	workflowPath := fs.String("workflow", "", "Path to workflow definition (YAML)")
	var data kvFlags
	fs.Var(&data, "data", "Initial data as key=value (repeatable)")
	fs.Parse(args)

	if *workflowPath == "" {
		fmt.Fprintln(os.Stderr, "run: --workflow is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg, logger := loadConfigAndLogger(*configPath)
	defer logger.Sync()

	def, err := loadDefinition(*workflowPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load workflow: %v\n", err)
		os.Exit(1)
	}

	store := workflow.NewStore()
	if err := store.Register(def); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid workflow definition: %v\n", err)
		os.Exit(1)
	}

	opts := []workflow.Option{workflow.WithEventBuffer(cfg.Workflow.EventBuffer)}
	manager, err := factory.NewManager(cfg.LLM.ManagerConfig(), logger)
	switch {
	case err == nil:
		opts = append(opts, workflow.WithAgentExecutor(llmAgentExecutor(manager)))
	case types.IsCode(err, types.ErrNoProvidersAvailable):
		logger.Warn("no LLM providers available, agent steps run in pass-through mode")
	default:
		fmt.Fprintf(os.Stderr, "Failed to initialize providers: %v\n", err)
		os.Exit(1)
	}

	engine := workflow.NewEngine(store, logger, opts...)
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway := hitl.NewConsoleGateway(os.Stdin, os.Stdout)
	dispatcher := hitl.NewDispatcher(engine, gateway, logger)
	done := dispatcher.Start(ctx)

	instanceID, err := engine.Start(ctx, def.ID, data.toMap())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start workflow: %v\n", err)
		os.Exit(1)
	}
	logger.Info("workflow started",
		zap.String("workflow_id", def.ID),
		zap.String("instance_id", instanceID),
	)

	waitForTerminal(ctx, engine, instanceID)
	engine.Close()
	<-done

	final, ok := engine.GetState(instanceID)
	if ok {
		fmt.Println(workflow.DescribeInstance(final))
		if final.Status == workflow.StatusFailed {
			os.Exit(1)
		}
	}
}

func runAssess(args []string) {
	fs := flag.NewFlagSet("assess", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	file := fs.String("file", "", "Path to the content to assess (default: stdin)")
	fs.Parse(args)

	cfg, logger := loadConfigAndLogger(*configPath)
	defer logger.Sync()

	var raw []byte
	var err error
	if *file != "" {
		raw, err = os.ReadFile(*file)
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read content: %v\n", err)
		os.Exit(1)
	}

	metrics := []quality.Metric{
		&quality.WordCountMetric{Min: cfg.Quality.MinWords, Max: cfg.Quality.MaxWords},
		&quality.ReadabilityMetric{},
		&quality.GrammarMetric{},
	}
	if cfg.Quality.EnableAI {
		manager, err := factory.NewManager(cfg.LLM.ManagerConfig(), logger)
		if err != nil {
			logger.Warn("AI metric disabled, no providers available", zap.Error(err))
		} else {
			metrics = append(metrics, quality.NewLLMMetric("ai_review", cfg.Quality.AICriterion, manager, logger))
		}
	}

	engine := quality.NewEngine(metrics, cfg.Quality.Threshold, logger)
	report := engine.Assess(context.Background(), string(raw))

	for _, m := range report.Metrics {
		detail := m.Detail
		if m.Error != "" {
			detail = "error: " + m.Error
		}
		fmt.Printf("  %-12s %.2f  %s\n", m.Name, m.Score, detail)
	}
	verdict := "FAIL"
	if report.Passed {
		verdict = "PASS"
	}
	fmt.Printf("overall %.2f (threshold %.2f): %s\n", report.OverallScore, report.Threshold, verdict)
	if !report.Passed {
		os.Exit(1)
	}
}

func runProviders(args []string) {
	fs := flag.NewFlagSet("providers", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg, logger := loadConfigAndLogger(*configPath)
	defer logger.Sync()

	registry := factory.NewRegistry(logger)
	mcfg := cfg.LLM.ManagerConfig()

	kinds := registry.Types()

	manager, err := factory.NewManager(mcfg, logger)
	var health map[llm.ProviderType]bool
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		health = manager.CheckHealth(ctx)
	}

	for _, t := range kinds {
		pcfg, configured := mcfg.Providers[t]
		status := "unavailable"
		if configured && registry.Available(t, pcfg) {
			status = "available"
		}
		if !configured {
			status = "not configured"
		}
		if healthy, ok := health[t]; ok {
			if healthy {
				status = "healthy"
			} else {
				status = "unhealthy"
			}
		}
		marker := " "
		if err == nil && manager.Primary() == t {
			marker = "*"
		}
		fmt.Printf("%s %-12s %s\n", marker, t, status)
	}
}

// llmAgentExecutor adapts the provider manager to the engine's agent hook.
// The step config supplies the prompt; absent one, the step succeeds with a
// note that nothing was asked.
func llmAgentExecutor(manager *llm.Manager) workflow.AgentExecutor {
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

func loadConfigAndLogger(configPath string) (*config.Config, *zap.Logger) {
	loader := config.NewLoader()
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := config.BuildLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger
}

func loadDefinition(path string) (*workflow.Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def workflow.Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &def, nil
}

// waitForTerminal polls the engine events until the instance reaches a
// terminal status or the context is cancelled.
func waitForTerminal(ctx context.Context, engine *workflow.Engine, instanceID string) {
	events := engine.Subscribe(ctx)
	if state, ok := engine.GetState(instanceID); ok && state.Status.Terminal() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.InstanceID != instanceID {
				continue
			}
			if event.Type == workflow.EventWorkflowCompleted || event.Type == workflow.EventWorkflowFailed {
				return
			}
		}
	}
}

// kvFlags collects repeated --data key=value pairs.
type kvFlags []string

func (f *kvFlags) String() string { return strings.Join(*f, ",") }

func (f *kvFlags) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	*f = append(*f, v)
	return nil
}

func (f *kvFlags) toMap() map[string]any {
	if len(*f) == 0 {
		return nil
	}
	out := make(map[string]any, len(*f))
	for _, kv := range *f {
		parts := strings.SplitN(kv, "=", 2)
		out[parts[0]] = parts[1]
	}
	return out
}

func printVersion() {
	fmt.Printf("flowgate %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`flowgate - workflow engine with human-in-the-loop steps

Usage:
  flowgate <command> [options]

Commands:
  run        Run a workflow definition interactively
  assess     Score content against the quality metrics
  providers  List configured LLM providers and their health
  version    Show version information
  help       Show this help message

Options for 'run':
  --workflow <path>  Path to the workflow definition (YAML, required)
  --config <path>    Path to configuration file (YAML)
  --data key=value   Initial workflow data (repeatable)

Options for 'assess':
  --file <path>      Content file to score (default: stdin)
  --config <path>    Path to configuration file (YAML)`)
}
