package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"phonogram/internal/config"
	"phonogram/internal/logging"
	"phonogram/internal/registration"
	"phonogram/internal/registry"
	"phonogram/internal/workflow"
)

// Daemon coordinates background processing and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *registry.Store
	workflow *workflow.Manager
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Workflow     workflow.StatusSummary
	DatabasePath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *registry.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		workflow: wf,
		logPath:  cfg.LogPath(),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start launches the workflow manager and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another phonogram daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("phonogram daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("phonogram daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// SubmitWork validates and enqueues a media file for processing.
func (d *Daemon) SubmitWork(ctx context.Context, title, mediaPath string) (*registry.Work, error) {
	if d.store == nil {
		return nil, errors.New("registry store unavailable")
	}
	trimmed := strings.TrimSpace(mediaPath)
	if trimmed == "" {
		return nil, errors.New("media path is required")
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve media path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat media file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("media path %q is a directory", absPath)
	}
	if !strings.HasPrefix(registration.MIMEForPath(absPath), "audio/") {
		return nil, fmt.Errorf("unsupported media extension %q", strings.ToLower(filepath.Ext(absPath)))
	}
	title = strings.TrimSpace(title)
	if title == "" {
		base := filepath.Base(absPath)
		title = registration.DisplayTitle(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	work, err := d.store.NewWork(ctx, title, d.cfg.Creator.Name, d.cfg.Creator.Address, absPath)
	if err != nil {
		return nil, fmt.Errorf("enqueue work: %w", err)
	}
	d.logger.Info("work submitted",
		logging.Int64(logging.FieldWorkID, work.ID),
		logging.String("title", title),
		logging.String("media_path", absPath),
	)
	return work, nil
}

// ListWorks returns registry works filtered by optional statuses.
func (d *Daemon) ListWorks(ctx context.Context, statuses []registry.Status) ([]*registry.Work, error) {
	if d.store == nil {
		return nil, errors.New("registry store unavailable")
	}
	return d.store.ListWorks(ctx, statuses...)
}

// ListAssets returns recorded ledger registrations.
func (d *Daemon) ListAssets(ctx context.Context) ([]*registry.IPAsset, error) {
	if d.store == nil {
		return nil, errors.New("registry store unavailable")
	}
	return d.store.ListAssets(ctx)
}

// ClearWorks removes all registry works.
func (d *Daemon) ClearWorks(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("registry store unavailable")
	}
	return d.store.Clear(ctx)
}

// ClearCompleted removes only completed works.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("registry store unavailable")
	}
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes only failed works.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("registry store unavailable")
	}
	return d.store.ClearFailed(ctx)
}

// ResetStuck transitions in-flight works back to their resumable statuses.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("registry store unavailable")
	}
	return d.store.ResetStuckProcessing(ctx)
}

// RetryFailed resets failed works (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	if d.store == nil {
		return 0, errors.New("registry store unavailable")
	}
	return d.store.RetryFailed(ctx, ids...)
}

// RegistryHealth returns aggregate registry diagnostics.
func (d *Daemon) RegistryHealth(ctx context.Context) (registry.HealthSummary, error) {
	if d.store == nil {
		return registry.HealthSummary{}, errors.New("registry store unavailable")
	}
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (registry.DatabaseHealth, error) {
	if d.store == nil {
		return registry.DatabaseHealth{}, errors.New("registry store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	summary := d.workflow.Status(ctx)
	return Status{
		Running:      d.running.Load(),
		Workflow:     summary,
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
	}
}
