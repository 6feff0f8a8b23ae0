package llm

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/flowgate/types"
)

// ManagerConfig selects the primary provider, the ordered fallbacks, and
// the per-type adapter configurations.
type ManagerConfig struct {
	Primary   ProviderType                    `json:"primary" yaml:"primary"`
	Fallbacks []ProviderType                  `json:"fallbacks,omitempty" yaml:"fallbacks,omitempty"`
	Providers map[ProviderType]ProviderConfig `json:"providers" yaml:"providers"`
}

// Manager dispatches chat requests to the primary provider and walks the
// fallback chain when a provider fails. Only provider types that are both
// configured and reported available by the registry are constructed.
type Manager struct {
	providers map[ProviderType]Provider
	order     []ProviderType // construction order: primary, fallbacks, rest sorted
	fallbacks []ProviderType
	logger    *zap.Logger

	mu      sync.RWMutex // guards primary
	primary ProviderType
}

// NewManager builds adapters for every configured-and-available provider
// type. It fails with NO_PROVIDERS_AVAILABLE when nothing could be
// constructed. A configured primary that was not constructed is replaced
// by the first constructed provider (logged, not fatal).
func NewManager(registry *Registry, cfg ManagerConfig, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "llm_manager"))

	m := &Manager{
		providers: make(map[ProviderType]Provider),
		fallbacks: append([]ProviderType(nil), cfg.Fallbacks...),
		logger:    logger,
	}

	for _, t := range constructionOrder(cfg) {
		pcfg, configured := cfg.Providers[t]
		if !configured {
			continue
		}
		if !registry.Available(t, pcfg) {
			logger.Info("skipping unavailable provider", zap.String("provider", string(t)))
			continue
		}
		p, err := registry.Build(t, pcfg, logger)
		if err != nil {
			logger.Warn("provider construction failed",
				zap.String("provider", string(t)),
				zap.Error(err),
			)
			continue
		}
		m.providers[t] = p
		m.order = append(m.order, t)
	}

	if len(m.providers) == 0 {
		return nil, types.NewError(types.ErrNoProvidersAvailable, "no usable LLM providers after availability filtering")
	}

	m.primary = cfg.Primary
	if _, ok := m.providers[m.primary]; !ok {
		substitute := m.order[0]
		logger.Warn("configured primary provider not constructed, substituting",
			zap.String("configured", string(cfg.Primary)),
			zap.String("substitute", string(substitute)),
		)
		m.primary = substitute
	}

	logger.Info("llm manager initialized",
		zap.String("primary", string(m.primary)),
		zap.Int("providers", len(m.providers)),
	)
	return m, nil
}

// constructionOrder yields the configured types deterministically: the
// primary first, then the declared fallbacks, then any remaining
// configured types in sorted order.
func constructionOrder(cfg ManagerConfig) []ProviderType {
	seen := make(map[ProviderType]bool)
	var order []ProviderType
	appendType := func(t ProviderType) {
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		order = append(order, t)
	}

	appendType(cfg.Primary)
	for _, t := range cfg.Fallbacks {
		appendType(t)
	}
	rest := make([]ProviderType, 0, len(cfg.Providers))
	for t := range cfg.Providers {
		if !seen[t] {
			rest = append(rest, t)
		}
	}
	sortProviderTypes(rest)
	for _, t := range rest {
		appendType(t)
	}
	return order
}

func sortProviderTypes(ts []ProviderType) {
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && ts[j] < ts[j-1]; j-- {
			ts[j], ts[j-1] = ts[j-1], ts[j]
		}
	}
}

// tryOrder is [primary] followed by the constructed fallbacks, with a
// provider never appearing twice.
func (m *Manager) tryOrder() []ProviderType {
	m.mu.RLock()
	primary := m.primary
	m.mu.RUnlock()

	order := []ProviderType{primary}
	seen := map[ProviderType]bool{primary: true}
	for _, t := range m.fallbacks {
		if seen[t] {
			continue
		}
		if _, ok := m.providers[t]; !ok {
			continue
		}
		seen[t] = true
		order = append(order, t)
	}
	return order
}

// Chat tries each provider in fallback order and returns the first
// successful response, annotated with the producing provider's name.
// When every provider in the try order fails, it returns
// ALL_PROVIDERS_FAILED carrying the last provider's error.
func (m *Manager) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error) {
	order := m.tryOrder()

	var lastErr error
	for i, t := range order {
		p := m.providers[t]
		resp, err := p.Chat(ctx, messages, opts)
		observeDispatchAttempt(p.Name(), err)
		if err == nil {
			resp.Provider = p.Name()
			return resp, nil
		}

		lastErr = err
		m.logger.Warn("provider chat failed",
			zap.String("provider", p.Name()),
			zap.Int("attempt", i+1),
			zap.Int("remaining", len(order)-i-1),
			zap.Error(err),
		)
		if i < len(order)-1 {
			observeFallback(p.Name())
		}
	}

	return nil, types.NewErrorf(types.ErrAllProvidersFailed,
		"all %d providers failed", len(order)).WithCause(lastErr)
}

// Prompt is a convenience wrapper building a system+user conversation and
// returning the response content.
func (m *Manager) Prompt(ctx context.Context, system, user string) (string, error) {
	messages := make([]Message, 0, 2)
	if system != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: system})
	}
	messages = append(messages, Message{Role: RoleUser, Content: user})

	resp, err := m.Chat(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// CheckHealth probes every constructed provider concurrently. Probe
// failures are reported as unhealthy, never as errors.
func (m *Manager) CheckHealth(ctx context.Context) map[ProviderType]bool {
	var mu sync.Mutex
	result := make(map[ProviderType]bool, len(m.providers))

	g, gctx := errgroup.WithContext(ctx)
	for t, p := range m.providers {
		t, p := t, p
		g.Go(func() error {
			start := time.Now()
			st, err := p.HealthCheck(gctx)
			latency := time.Since(start)

			healthy := err == nil && st != nil && st.Healthy
			if st != nil && st.Latency > 0 {
				latency = st.Latency
			}
			observeHealthCheck(p.Name(), healthy, latency)
			if err != nil {
				m.logger.Warn("provider health check failed",
					zap.String("provider", p.Name()),
					zap.Duration("latency", latency),
					zap.Error(err),
				)
			}

			mu.Lock()
			result[t] = healthy
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return result
}

// SwitchPrimary updates the primary pointer. It fails with
// PROVIDER_UNAVAILABLE when the type was not constructed.
func (m *Manager) SwitchPrimary(t ProviderType) error {
	if _, ok := m.providers[t]; !ok {
		return types.NewErrorf(types.ErrProviderUnavailable, "provider %q was not constructed", t)
	}
	m.mu.Lock()
	m.primary = t
	m.mu.Unlock()
	m.logger.Info("primary provider switched", zap.String("primary", string(t)))
	return nil
}

// Primary returns the current primary provider type.
func (m *Manager) Primary() ProviderType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.primary
}

// AvailableProviders returns the constructed provider types in
// construction order.
func (m *Manager) AvailableProviders() []ProviderType {
	return append([]ProviderType(nil), m.order...)
}

// Provider returns a constructed provider by type.
func (m *Manager) Provider(t ProviderType) (Provider, bool) {
	p, ok := m.providers[t]
	return p, ok
}
