package workflow

import (
	"sync"

	"github.com/BaSui01/flowgate/types"
)

// StepType tags the behavior of a workflow step.
type StepType string

const (
	StepTypeAgent  StepType = "agent"
	StepTypeHuman  StepType = "human"
	StepTypeSystem StepType = "system"
)

// Step is a single unit of work in a workflow definition.
type Step struct {
	// ID is unique within the definition.
	ID string `json:"id" yaml:"id"`
	// Type selects the step behavior (agent, human, system).
	Type StepType `json:"type" yaml:"type"`
	// Config carries step-specific configuration (prompt, input type,
	// choices, metadata for human steps).
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	// DependsOn lists step ids that must complete before this step runs.
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// Definition is an immutable named workflow graph. Steps execute in
// declaration order among the eligible ones; dependencies gate
// eligibility.
type Definition struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Steps []Step `json:"steps" yaml:"steps"`
}

// Store holds registered workflow definitions. Registration replaces any
// prior definition with the same id; definitions are never mutated after
// registration.
type Store struct {
	mu          sync.RWMutex
	definitions map[string]*Definition
}

// NewStore creates an empty definition store.
func NewStore() *Store {
	return &Store{definitions: make(map[string]*Definition)}
}

// Register validates and stores a definition, replacing any prior one
// under the same id. It fails with INVALID_DEFINITION when a dependency
// references an unknown step or a step id repeats, and with
// DEPENDENCY_CYCLE when the dependency graph contains a cycle. Without
// the cycle check a cyclic definition would complete instantly with zero
// steps executed, since "no eligible step" reads as "done".
func (s *Store) Register(def *Definition) error {
	if def == nil || def.ID == "" {
		return types.NewError(types.ErrInvalidDefinition, "definition id must not be empty")
	}
	if err := validateSteps(def); err != nil {
		return err
	}
	if err := detectCycle(def); err != nil {
		return err
	}

	copied := cloneDefinition(def)
	s.mu.Lock()
	s.definitions[def.ID] = copied
	s.mu.Unlock()
	return nil
}

// Get retrieves a definition by id.
func (s *Store) Get(id string) (*Definition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.definitions[id]
	return def, ok
}

// List returns the ids of all registered definitions.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.definitions))
	for id := range s.definitions {
		ids = append(ids, id)
	}
	return ids
}

func validateSteps(def *Definition) error {
	ids := make(map[string]bool, len(def.Steps))
	for _, step := range def.Steps {
		if step.ID == "" {
			return types.NewErrorf(types.ErrInvalidDefinition, "definition %q has a step with an empty id", def.ID)
		}
		if ids[step.ID] {
			return types.NewErrorf(types.ErrInvalidDefinition, "definition %q repeats step id %q", def.ID, step.ID)
		}
		ids[step.ID] = true
	}
	for _, step := range def.Steps {
		for _, dep := range step.DependsOn {
			if !ids[dep] {
				return types.NewErrorf(types.ErrInvalidDefinition,
					"step %q depends on unknown step %q", step.ID, dep)
			}
			if dep == step.ID {
				return types.NewErrorf(types.ErrDependencyCycle,
					"step %q depends on itself", step.ID)
			}
		}
	}
	return nil
}

// detectCycle runs a depth-first walk over the dependency edges.
func detectCycle(def *Definition) error {
	deps := make(map[string][]string, len(def.Steps))
	for _, step := range def.Steps {
		deps[step.ID] = step.DependsOn
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(deps))

	var visit func(id string) bool
	visit = func(id string) bool {
		switch state[id] {
		case visiting:
			return true
		case done:
			return false
		}
		state[id] = visiting
		for _, dep := range deps[id] {
			if visit(dep) {
				return true
			}
		}
		state[id] = done
		return false
	}

	for _, step := range def.Steps {
		if visit(step.ID) {
			return types.NewErrorf(types.ErrDependencyCycle,
				"definition %q has a dependency cycle through step %q", def.ID, step.ID)
		}
	}
	return nil
}

func cloneDefinition(def *Definition) *Definition {
	out := &Definition{ID: def.ID, Name: def.Name, Steps: make([]Step, len(def.Steps))}
	for i, step := range def.Steps {
		copied := step
		copied.DependsOn = append([]string(nil), step.DependsOn...)
		if step.Config != nil {
			copied.Config = make(map[string]any, len(step.Config))
			for k, v := range step.Config {
				copied.Config[k] = v
			}
		}
		out.Steps[i] = copied
	}
	return out
}
