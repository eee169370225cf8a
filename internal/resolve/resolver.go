// Package resolve implements the option-resolution pipeline: a fixed,
// order-dependent sequence of merge steps that turns raw CLI options into a
// fully resolved build configuration.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/sitepress/internal/blog"
	"git.home.luguber.info/inful/sitepress/internal/config"
	"git.home.luguber.info/inful/sitepress/internal/content"
	sperrors "git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/history"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
	"git.home.luguber.info/inful/sitepress/internal/plugin"
	"git.home.luguber.info/inful/sitepress/internal/search"
)

// Resolver drives the resolution pipeline. The zero value is usable; fields
// exist so tests and callers can inject collaborators.
type Resolver struct {
	// Registry backs plugin initialization. Nil disables plugin loading.
	Registry *plugin.Registry

	// Transform overrides the search content transform. Nil uses the
	// default markdown-stripping transform.
	Transform search.Transform

	// History overrides the version-control collaborator. Nil opens the
	// repository enclosing the source root.
	History blog.TimestampResolver
}

// Resolve runs the pipeline stages strictly in order. Later stages depend on
// earlier ones: baseURL must be finalized before navigation rewrite, and
// content indices and baseURL must be in place before plugins initialize,
// because plugins may read them.
//
// The returned Config must not be mutated afterwards.
func (r *Resolver) Resolve(ctx context.Context, opts config.Options) (*config.Config, error) {
	cfg := config.Defaults()

	// 1. Config-file search and three-way merge (defaults < file < options).
	src := cfg.Src
	if opts.Src != nil {
		src = *opts.Src
	}
	if path, ok := config.FindConfigFile(src); ok {
		slog.Debug("Using config file", logfields.Path(path))
		if err := config.LoadFile(path, &cfg); err != nil {
			return nil, sperrors.Wrap(err, sperrors.CategoryConfig, sperrors.SeverityFatal, "config file unreadable")
		}
	}
	opts.Apply(&cfg)
	config.DeriveAuthor(&cfg, cfg.Src)

	// 2. baseURL normalization: split off the fqdn when a scheme is present.
	if err := splitBaseURL(&cfg); err != nil {
		return nil, err
	}

	// 3. baseURL finalization: a serving context has no meaningful prefix.
	if cfg.Watch {
		cfg.BaseURL = "/"
	} else {
		cfg.BaseURL = wrapSlashes(cfg.BaseURL)
	}

	// 4. Build-message annotation. Pure function of mode and resolved fields.
	annotateMessages(&cfg)

	// 5. Blog index.
	scanner := content.NewScanner(cfg.Src)
	posts, err := blog.NewIndexBuilder(scanner, r.historyResolver(&cfg)).Build(ctx)
	if err != nil {
		return nil, sperrors.Wrap(err, sperrors.CategoryContent, sperrors.SeverityFatal, "blog index failed")
	}
	cfg.BlogPosts = posts

	// 6. Search index.
	docs, err := search.NewIndexBuilder(scanner, r.Transform).Build(ctx, &search.Context{
		SourceRoot: cfg.Src,
		BaseURL:    cfg.BaseURL,
	})
	if err != nil {
		return nil, sperrors.Wrap(err, sperrors.CategoryContent, sperrors.SeverityFatal, "search index failed")
	}
	cfg.SearchIndex = docs

	// 7. Plugin initialization. The loader mutates descriptors in place and
	// joins all plugin goroutines before returning.
	if len(cfg.Plugins) > 0 && r.Registry != nil {
		cfg.Plugins = plugin.NewLoader(r.Registry).LoadAll(ctx, cfg.Plugins)
	}

	// 8. Navigation rewrite against the finalized baseURL.
	for i := range cfg.NavItems {
		cfg.NavItems[i].Target = prefixBaseURL(cfg.BaseURL, cfg.NavItems[i].Target)
	}

	return &cfg, nil
}

// historyResolver returns the injected version-control collaborator, or opens
// the repository enclosing the source root. An unresolvable repository is not
// fatal: posts are indexed without timestamps.
func (r *Resolver) historyResolver(cfg *config.Config) blog.TimestampResolver {
	if r.History != nil {
		return r.History
	}
	hr, err := history.Open(cfg.Src)
	if err != nil {
		slog.Warn("No version-control history available", logfields.Path(cfg.Src), logfields.Error(err))
		return nil
	}
	return hr
}

// splitBaseURL extracts host (fqdn) and root-relative path from a baseURL
// that carries a scheme. A baseURL that parses neither as a path nor as an
// absolute http(s) URL is a fatal config error.
func splitBaseURL(cfg *config.Config) error {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil
	}

	if strings.Contains(raw, "://") && !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return sperrors.ConfigError(fmt.Sprintf("malformed baseURL %q", raw))
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return sperrors.ConfigError(fmt.Sprintf("malformed baseURL %q", raw))
		}
		cfg.FQDN = u.Host
		cfg.BaseURL = u.Path
		return nil
	}

	if _, err := url.Parse(raw); err != nil {
		return sperrors.ConfigError(fmt.Sprintf("malformed baseURL %q", raw))
	}
	cfg.BaseURL = raw
	return nil
}

// wrapSlashes normalizes a path prefix to the /prefix/ form.
func wrapSlashes(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return "/"
	}
	return "/" + p + "/"
}

// prefixBaseURL prefixes a navigation target with the finalized baseURL.
// Targets that already carry a scheme are external links and pass through.
func prefixBaseURL(base, target string) string {
	if strings.Contains(target, "://") {
		return target
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(target, "/")
}

// annotateMessages attaches human-readable status notes for the operator.
func annotateMessages(cfg *config.Config) {
	if cfg.Watch {
		cfg.Messages = append(cfg.Messages,
			fmt.Sprintf("Serving site at http://localhost:%d/", cfg.Port))
		return
	}
	cfg.Messages = append(cfg.Messages,
		fmt.Sprintf("Building %s to %s (baseURL %s)", cfg.Src, cfg.Dst, cfg.BaseURL))
	if cfg.Publish {
		cfg.Messages = append(cfg.Messages, "Publishing to hosting branch after build")
	}
}
