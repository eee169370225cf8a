// Package plugin provides the capability-based plugin system used during
// option resolution. A plugin is a registered value implementing Init;
// discovery reads a manifest from the plugin's install directory and looks up
// the matching capability — no code is ever loaded from disk.
package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Reserved option keys written by the loader itself, distinct from
// user-supplied plugin options.
const (
	// ReservedInit holds the awaited return value of the plugin's Init.
	ReservedInit = "@init"

	// ReservedComponents holds the component-injection map (component name ->
	// absolute source path) as a plain map[string]string, so it stays
	// serializable for downstream code generation.
	ReservedComponents = "@components"
)

// Options is a plugin's mutable options block.
type Options map[string]any

// Descriptor declares one plugin: a kind tag, its install directory, and its
// options block. The loader mutates Options in place; each plugin only ever
// touches its own descriptor.
type Descriptor struct {
	Kind    string  `yaml:"kind" json:"kind"`
	Path    string  `yaml:"path,omitempty" json:"path,omitempty"`
	Options Options `yaml:"options,omitempty" json:"options,omitempty"`
}

// Plugin is the init capability every participating plugin implements.
// Init receives the descriptor's options block and returns an opaque result
// the loader stores under ReservedInit.
type Plugin interface {
	Init(ctx context.Context, opts Options) (any, error)
}

// ComponentProvider is the optional component-injection capability. The
// returned mapping values are file paths relative to the plugin's install
// directory (or absolute); the loader resolves them to absolute paths.
type ComponentProvider interface {
	ComponentMap(opts Options) (map[string]string, error)
}

// Factory constructs a plugin value bound to one install directory.
type Factory func(installDir string) (Plugin, error)

// Registry manages plugin capability registration by kind tag.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds a factory to a kind tag.
// Returns an error if the kind is already registered.
func (r *Registry) Register(kind string, f Factory) error {
	if kind == "" {
		return fmt.Errorf("cannot register plugin with empty kind")
	}
	if f == nil {
		return fmt.Errorf("cannot register nil factory for %s", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("plugin kind %s already registered", kind)
	}
	r.factories[kind] = f
	return nil
}

// Lookup retrieves the factory for a kind tag.
func (r *Registry) Lookup(kind string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[kind]
	return f, ok
}

// Kinds returns all registered kind tags, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
