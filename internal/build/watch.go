package build

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitepress/internal/config"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
)

// fullRescanInterval is how often watch mode forces a rebuild even without
// filesystem events, to pick up changes the watcher missed.
const fullRescanInterval = 10 * time.Minute

// runWatch starts the long-lived development server: bundler output served
// with history-fallback routing, livereload, debounced rebuilds on file
// changes, and a scheduled periodic full rebuild. Runs until ctx is done.
func (d *Driver) runWatch(ctx context.Context, cfg *config.Config) error {
	// Initial compile. A failure is reported, not fatal: the server still
	// starts and the next change can fix the build.
	if _, err := d.Bundler.Run(ctx, specFor(cfg)); err != nil {
		slog.Error("Initial build failed", logfields.Error(err))
	}

	hub := newLiveReloadHub()
	defer hub.shutdown()

	server, err := d.startWatchServer(cfg, hub)
	if err != nil {
		return err
	}

	watcher, err := setupFileWatcher(cfg.Src)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	rebuildReq, trigger := setupRebuildDebouncer()
	d.startRebuildWorker(ctx, cfg, hub, rebuildReq)

	scheduler, err := startRescanSchedule(trigger)
	if err != nil {
		slog.Warn("Periodic rescan disabled", logfields.Error(err))
	} else {
		defer func() { _ = scheduler.Shutdown() }()
	}

	d.maybeOpenBrowser(cfg)

	for {
		select {
		case <-ctx.Done():
			return shutdownWatchServer(server)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleFileEvent(watcher, ev, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

// startWatchServer serves the output directory and the livereload endpoints.
// It binds the listener synchronously so "listening" is guaranteed before the
// browser opens.
func (d *Driver) startWatchServer(cfg *config.Config, hub *liveReloadHub) (*http.Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/", historyFallback(cfg.Dst))
	mux.Handle("/livereload", hub)
	mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		if _, err := w.Write([]byte(LiveReloadScript)); err != nil {
			slog.Error("failed to write livereload script", logfields.Error(err))
		}
	})
	if pr, ok := d.Metrics.(*metrics.PrometheusRecorder); ok {
		mux.Handle("/metrics", pr.HTTPHandler())
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", cfg.Port, err)
	}

	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("Watch server error", logfields.Error(err))
		}
	}()

	slog.Info("Watch server listening", logfields.Port(cfg.Port),
		logfields.URL(fmt.Sprintf("http://localhost:%d/", cfg.Port)))
	return server, nil
}

func shutdownWatchServer(server *http.Server) error {
	slog.Info("Shutting down watch server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Watch server shutdown error", logfields.Error(err))
	}
	return nil
}

// setupFileWatcher creates and configures the filesystem watcher.
func setupFileWatcher(src string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := addDirsRecursive(watcher, src); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}

// setupRebuildDebouncer creates rebuild channel and trigger function with debouncing.
func setupRebuildDebouncer() (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(300*time.Millisecond, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}

	return rebuildReq, trigger
}

// startRebuildWorker starts the background goroutine serializing rebuilds.
func (d *Driver) startRebuildWorker(ctx context.Context, cfg *config.Config, hub *liveReloadHub, rebuildReq chan struct{}) {
	var mu sync.Mutex
	running := false
	pending := false

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-rebuildReq:
				if !ok {
					return
				}
				mu.Lock()
				if running {
					pending = true
					mu.Unlock()
					continue
				}
				running = true
				mu.Unlock()

				d.processRebuild(ctx, cfg, hub)

				mu.Lock()
				running = false
				if pending {
					pending = false
					mu.Unlock()
					select {
					case rebuildReq <- struct{}{}:
					default:
					}
				} else {
					mu.Unlock()
				}
			}
		}
	}()
}

// processRebuild performs the actual rebuild and notifies browsers.
func (d *Driver) processRebuild(ctx context.Context, cfg *config.Config, hub *liveReloadHub) {
	slog.Info("Change detected; rebuilding site")
	d.Metrics.IncRebuild()

	started := time.Now()
	if _, err := d.Bundler.Run(ctx, specFor(cfg)); err != nil {
		slog.Warn("rebuild failed", logfields.Error(err))
		hub.broadcast(fmt.Sprintf("error:%d", time.Now().UnixNano()))
		return
	}
	d.Metrics.ObserveBuildDuration(time.Since(started))
	hub.broadcast(strconv.FormatInt(time.Now().UnixNano(), 10))
}

// startRescanSchedule runs a periodic full rebuild so drift from missed
// filesystem events self-heals.
func startRescanSchedule(trigger func()) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(fullRescanInterval),
		gocron.NewTask(trigger),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("schedule rescan job: %w", err)
	}
	scheduler.Start()
	return scheduler, nil
}

func (d *Driver) maybeOpenBrowser(cfg *config.Config) {
	if !cfg.Open {
		return
	}
	url := fmt.Sprintf("http://localhost:%d/", cfg.Port)
	open := d.OpenBrowser
	if open == nil {
		open = openBrowser
	}
	if err := open(url); err != nil {
		slog.Warn("Failed to open browser", logfields.URL(url), logfields.Error(err))
	}
}

// handleFileEvent processes a filesystem event and triggers rebuild if needed.
func handleFileEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != root {
				return filepath.SkipDir
			}
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for filesystem events that should not trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	// Editor temp/swap files
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	if base == "Thumbs.db" {
		return true
	}

	return false
}
