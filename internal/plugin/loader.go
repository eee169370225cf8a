package plugin

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/sitepress/internal/logfields"
)

// Loader initializes declared plugins against a registry.
type Loader struct {
	registry *Registry
}

// NewLoader creates a loader backed by the given registry.
func NewLoader(registry *Registry) *Loader {
	return &Loader{registry: registry}
}

// LoadAll initializes every descriptor concurrently and returns the same
// slice once all plugins have settled. Per-plugin failures are isolated:
// LoadAll never fails the overall build.
//
// A plugin with no resolvable capability is skipped with zero mutation of its
// options block. That is deliberate "plugin has no init hook" detection, not
// an error condition.
func (l *Loader) LoadAll(ctx context.Context, descriptors []*Descriptor) []*Descriptor {
	var wg sync.WaitGroup
	for _, desc := range descriptors {
		if desc == nil {
			continue
		}
		wg.Add(1)
		go func(desc *Descriptor) {
			defer wg.Done()
			l.loadOne(ctx, desc)
		}(desc)
	}
	wg.Wait()
	return descriptors
}

// loadOne drives a single descriptor through discover -> init -> attach ->
// inject-components. Only this goroutine touches desc.
func (l *Loader) loadOne(ctx context.Context, desc *Descriptor) {
	kind := desc.Kind

	if desc.Path != "" {
		manifest, err := ReadManifest(desc.Path)
		if err != nil {
			slog.Debug("Plugin manifest unreadable, skipping", logfields.Plugin(desc.Kind), logfields.Error(err))
			return
		}
		if manifest.Init != "" {
			kind = manifest.Init
		}
	}

	factory, ok := l.registry.Lookup(kind)
	if !ok {
		// No registered capability: the plugin declines to participate.
		slog.Debug("Plugin has no init capability", logfields.Plugin(kind))
		return
	}

	p, err := factory(desc.Path)
	if err != nil {
		slog.Debug("Plugin construction failed, skipping", logfields.Plugin(kind), logfields.Error(err))
		return
	}

	if desc.Options == nil {
		desc.Options = make(Options)
	}

	result, err := p.Init(ctx, desc.Options)
	if err != nil {
		slog.Warn("Plugin init failed", logfields.Plugin(kind), logfields.Error(err))
		return
	}
	desc.Options[ReservedInit] = result

	if provider, ok := p.(ComponentProvider); ok {
		components, err := provider.ComponentMap(desc.Options)
		if err != nil {
			slog.Warn("Plugin component map failed", logfields.Plugin(kind), logfields.Error(err))
			return
		}
		desc.Options[ReservedComponents] = resolveComponentPaths(desc.Path, components)
	}

	slog.Debug("Plugin initialized", logfields.Plugin(kind))
}

// resolveComponentPaths resolves component source paths against the plugin's
// install directory.
func resolveComponentPaths(installDir string, components map[string]string) map[string]string {
	resolved := make(map[string]string, len(components))
	for name, path := range components {
		if !filepath.IsAbs(path) {
			path = filepath.Join(installDir, path)
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		resolved[name] = path
	}
	return resolved
}
