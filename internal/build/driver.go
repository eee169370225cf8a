// Package build drives a resolved configuration through the bundler: either
// a long-lived watch server or a one-shot compile with optional static
// render and publish.
package build

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitepress/internal/buildlog"
	"git.home.luguber.info/inful/sitepress/internal/bundler"
	"git.home.luguber.info/inful/sitepress/internal/config"
	sperrors "git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
	"git.home.luguber.info/inful/sitepress/internal/publish"
)

// StaticRenderer renders the compiled bundle into a fully static site tree.
// It is an external collaborator; nil disables the static render step.
type StaticRenderer interface {
	Render(ctx context.Context, cfg *config.Config) error
}

// Publisher pushes a directory to a hosting branch. Variable so tests can
// intercept; defaults to the real go-git publisher.
type Publisher func(ctx context.Context, dir string, opts publish.Options) error

// Driver decides among watch-serve, one-shot-build and publish paths.
type Driver struct {
	Bundler  bundler.Bundler
	Renderer StaticRenderer
	Metrics  metrics.Recorder
	Log      *buildlog.Store // optional
	Publish  Publisher
	Token    string

	// OpenBrowser is invoked with the serving URL once the watch server is
	// listening and cfg.Open is set. Nil falls back to the OS launcher.
	OpenBrowser func(url string) error
}

// NewDriver creates a driver with the real publisher and noop metrics.
func NewDriver(b bundler.Bundler) *Driver {
	return &Driver{
		Bundler: b,
		Metrics: metrics.NoopRecorder{},
		Publish: publish.Publish,
	}
}

// Run executes the build decision tree for a resolved configuration.
func (d *Driver) Run(ctx context.Context, cfg *config.Config) error {
	if cfg.Publish {
		if err := validatePublish(cfg); err != nil {
			return err
		}
	}

	for _, msg := range cfg.Messages {
		slog.Info(msg)
	}

	if cfg.Watch {
		return d.runWatch(ctx, cfg)
	}
	return d.runOnce(ctx, cfg)
}

// validatePublish checks publish preconditions before the bundler is ever
// invoked.
func validatePublish(cfg *config.Config) error {
	if cfg.GithubURL == "" {
		return sperrors.ConfigError("Need to provide githubURL option to publish")
	}
	if cfg.Author == nil || cfg.Author.Name == "" {
		return sperrors.ConfigError("Need an author name to publish")
	}
	if cfg.Author.Email == "" {
		return sperrors.ConfigError("Need an author email to publish")
	}
	return nil
}

// runOnce invokes the bundler exactly once, then applies the post-compile
// steps: stats artifact, static render, publish.
func (d *Driver) runOnce(ctx context.Context, cfg *config.Config) error {
	id := uuid.NewString()
	started := time.Now()
	slog.Info("Build started", logfields.BuildID(id), logfields.Mode("build"))

	stats, err := d.Bundler.Run(ctx, specFor(cfg))
	if err != nil {
		d.Metrics.IncBuildOutcome("failed")
		d.record(ctx, id, started, "build", "failed", err)
		reportBundlerError(err)
		return err
	}
	d.Metrics.ObserveBuildDuration(time.Since(started))

	for _, warning := range stats.Warnings {
		slog.Warn("Bundler warning", slog.String("warning", warning))
	}

	if cfg.JSON {
		if err := writeStats(cfg.Dst, stats); err != nil {
			slog.Warn("Failed to write stats artifact", logfields.Error(err))
		}
	}

	if cfg.Static && d.Renderer != nil {
		stage := time.Now()
		if err := d.Renderer.Render(ctx, cfg); err != nil {
			d.Metrics.IncBuildOutcome("failed")
			d.record(ctx, id, started, "build", "failed", err)
			return sperrors.Wrap(err, sperrors.CategoryBundler, sperrors.SeverityFatal, "static render failed")
		}
		d.Metrics.ObserveStageDuration("render", time.Since(stage))
	}

	if cfg.Publish {
		d.publishSite(ctx, cfg)
	}

	d.Metrics.IncBuildOutcome("success")
	d.record(ctx, id, started, "build", "success", nil)
	slog.Info("Build complete", logfields.BuildID(id), logfields.Path(cfg.Dst),
		logfields.DurationMS(float64(time.Since(started).Milliseconds())))
	return nil
}

// publishSite pushes the output directory. A push failure is reported but
// never fails the run: the compile already succeeded.
func (d *Driver) publishSite(ctx context.Context, cfg *config.Config) {
	stage := time.Now()

	if cfg.Domain != "" {
		if err := publish.WriteCNAME(cfg.Dst, cfg.Domain); err != nil {
			slog.Error("Publish failed", logfields.Error(sperrors.PublishError(err, "CNAME write failed")))
			return
		}
	}

	opts := publish.Options{
		RepoURL: cfg.GithubURL,
		Name:    cfg.Author.Name,
		Email:   cfg.Author.Email,
		Token:   d.Token,
	}
	if err := d.Publish(ctx, cfg.Dst, opts); err != nil {
		slog.Error("Publish failed", logfields.Error(sperrors.PublishError(err, "hosting push failed")))
		return
	}
	d.Metrics.IncBuildOutcome("published")
	d.Metrics.ObserveStageDuration("publish", time.Since(stage))
}

// reportBundlerError surfaces the fatal compile error and any nested detail.
func reportBundlerError(err error) {
	slog.Error("Bundler reported fatal error", logfields.Error(err))
	var spe *sperrors.SitePressError
	if errors.As(err, &spe) {
		if detail, exists := spe.Context["output"]; exists {
			slog.Error("Bundler detail", slog.Any("detail", detail))
		}
	}
}

// writeStats emits the raw bundler statistics as a pretty-printed artifact.
func writeStats(dst string, stats *bundler.Stats) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dst, "stats.json"), data, 0o644)
}

func specFor(cfg *config.Config) bundler.BuildSpec {
	return bundler.BuildSpec{
		Src:     cfg.Src,
		Dst:     cfg.Dst,
		BaseURL: cfg.BaseURL,
		Extra:   cfg.Extra,
	}
}

func (d *Driver) record(ctx context.Context, id string, started time.Time, mode, outcome string, err error) {
	if d.Log == nil {
		return
	}
	rec := buildlog.Record{
		ID:         id,
		StartedAt:  started,
		DurationMS: time.Since(started).Milliseconds(),
		Mode:       mode,
		Outcome:    outcome,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if appendErr := d.Log.Append(ctx, rec); appendErr != nil {
		slog.Warn("Failed to record build", logfields.Error(appendErr))
	}
}
