package engine

import (
	"fmt"
	"sort"
)

// Config selects and parametrizes one engine.
type Config struct {
	Name     Name
	Language string
	// Model requested from the engine, e.g. en_core_web_sm.
	Model string

	// Runner produces the engine JSON. When nil, the factory builds a
	// CommandRunner from Command.
	Runner  Runner
	Command []string
}

// Factory builds an engine from its configuration.
type Factory func(cfg Config) (Engine, error)

// Registry maps engine names to factories.
type Registry struct {
	factories map[Name]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[Name]Factory{}}
}

// Register adds or replaces the factory of name.
func (r *Registry) Register(name Name, f Factory) {
	r.factories[name] = f
}

// New builds the engine cfg.Name. Unknown names yield a *ConfigError.
func (r *Registry) New(cfg Config) (Engine, error) {
	f, ok := r.factories[cfg.Name]
	if !ok {
		return nil, &ConfigError{Field: "engine", Message: fmt.Sprintf("unknown engine %q (known: %v)", cfg.Name, r.Names())}
	}
	return f(cfg)
}

// Names returns the registered engine names, sorted.
func (r *Registry) Names() []Name {
	names := make([]Name, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// RunnerFor returns cfg.Runner, or a CommandRunner for cfg.Command.
func RunnerFor(cfg Config) (Runner, error) {
	if cfg.Runner != nil {
		return cfg.Runner, nil
	}
	return NewCommandRunner(cfg.Command)
}
