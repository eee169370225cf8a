package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/sitepress/internal/build"
	"git.home.luguber.info/inful/sitepress/internal/buildlog"
	"git.home.luguber.info/inful/sitepress/internal/bundler"
	"git.home.luguber.info/inful/sitepress/internal/config"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
	"git.home.luguber.info/inful/sitepress/internal/plugin"
	"git.home.luguber.info/inful/sitepress/internal/publish"
	"git.home.luguber.info/inful/sitepress/internal/resolve"
)

type buildFlags struct {
	Src       *string `short:"s" help:"Source directory" placeholder:"DIR"`
	Dst       *string `short:"d" help:"Output directory" placeholder:"DIR"`
	BaseURL   *string `name:"base-url" help:"URL prefix the site is served under"`
	FQDN      *string `help:"Custom domain name"`
	Port      *int    `short:"p" help:"Development server port"`
	Open      *bool   `help:"Open the browser once serving"`
	JSON      *bool   `help:"Emit stats.json next to the build output"`
	Static    *bool   `help:"Render a fully static site"`
	Publish   *bool   `help:"Push the build output to the hosting branch"`
	GithubURL *string `name:"github-url" help:"Repository URL to publish to"`
	Domain    *string `help:"Custom domain, written to CNAME when publishing"`
	Generator *string `help:"Site generator command the build shells out to"`
}

var CLI struct {
	Verbose bool `short:"v" help:"Enable verbose logging"`

	Build buildFlags `cmd:"" help:"Build the site once (optionally publish)"`

	Watch buildFlags `cmd:"" help:"Serve the site and rebuild on changes"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Log struct {
		Limit int `short:"n" default:"10" help:"Number of records to show"`
	} `cmd:"" help:"Show recent build records"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// .env is optional; the publish token may come from it.
	_ = godotenv.Load()

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	var err error
	switch ctx.Command() {
	case "build":
		err = runBuild(CLI.Build, false)
	case "watch":
		err = runBuild(CLI.Watch, true)
	case "init":
		err = runInit(CLI.Init.Force)
	case "log":
		err = runLog(CLI.Log.Limit)
	}
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func runBuild(flags buildFlags, watch bool) error {
	runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	resolver := &resolve.Resolver{Registry: plugin.NewRegistry()}
	cfg, err := resolver.Resolve(runCtx, optionsFrom(flags, watch))
	if err != nil {
		return err
	}

	recorder := metrics.NewPrometheusRecorder(nil)
	driver := build.NewDriver(bundler.NewExecBundler(cfg.Generator))
	driver.Metrics = recorder
	driver.Token = publish.Token()

	if store, err := openBuildLog(); err != nil {
		slog.Warn("Build log disabled", "error", err)
	} else {
		driver.Log = store
		defer func() { _ = store.Close() }()
	}

	return driver.Run(runCtx, cfg)
}

func optionsFrom(flags buildFlags, watch bool) config.Options {
	opts := config.Options{
		Src:       flags.Src,
		Dst:       flags.Dst,
		BaseURL:   flags.BaseURL,
		FQDN:      flags.FQDN,
		Port:      flags.Port,
		Open:      flags.Open,
		JSON:      flags.JSON,
		Static:    flags.Static,
		Publish:   flags.Publish,
		GithubURL: flags.GithubURL,
		Domain:    flags.Domain,
		Generator: flags.Generator,
	}
	// The command decides the mode outright; a watch key in the config file
	// must not turn a one-shot build into a server.
	opts.Watch = &watch
	return opts
}

func runInit(force bool) error {
	path := config.ConfigFileNames[0]
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	example := `# sitepress configuration
src: .
dst: _site
title: My Documentation Site
baseURL: https://example.com/docs
navItems:
  - name: home
    target: index.html
plugins: []
`
	if err := os.WriteFile(path, []byte(example), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	slog.Info("Configuration created", "path", path)
	return nil
}

func runLog(limit int) error {
	store, err := openBuildLog()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	for _, rec := range records {
		fmt.Printf("%s  %-7s %-8s %6dms  %s\n",
			rec.StartedAt.Format("2006-01-02 15:04:05"), rec.Mode, rec.Outcome, rec.DurationMS, rec.Error)
	}
	return nil
}

func openBuildLog() (*buildlog.Store, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("resolve cache dir: %w", err)
	}
	dir := filepath.Join(cacheDir, "sitepress")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return buildlog.Open(filepath.Join(dir, "builds.db"))
}
