package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hidectl/internal/catalog"
	"hidectl/internal/config"
	"hidectl/internal/engine"
	"hidectl/internal/hidelist"
	"hidectl/internal/history"
	"hidectl/internal/labels"
	"hidectl/internal/models"
	"hidectl/internal/shell"

	"github.com/charmbracelet/log"
)

// app holds the wired components shared by the TUI and the subcommands
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	runner  shell.Runner
	gateway *hidelist.Gateway
	labels  *labels.Store
	loader  *catalog.Loader
	engine  *engine.Engine
}

// newRunner picks the privileged channel described by cfg
func newRunner(cfg *config.Config) shell.Runner {
	if cfg.Local {
		r := shell.NewLocal(cfg.Root)
		r.Timeout = cfg.Timeout
		return r
	}
	r := shell.NewADB(cfg.ADBPath, cfg.Serial, cfg.Root)
	r.Timeout = cfg.Timeout
	return r
}

// newApp wires every component on top of runner
func newApp(cfg *config.Config, logger *log.Logger, runner shell.Runner) *app {
	store := labels.New(cfg.LabelsPath)
	if err := store.Load(); err != nil {
		logger.Warn("label overrides not loaded", "path", store.Path(), "err", err)
	}

	gateway := hidelist.New(runner, cfg.Tool)

	loader := catalog.NewLoader(catalog.NewPackageManager(runner, cfg.User), store, cfg.LocaleTag())
	loader.Deny = store.Denied
	loader.Logger = logger.WithPrefix("catalog")

	eng := engine.New(loader, gateway, engine.Options{
		Logger:  logger.WithPrefix("engine"),
		Timeout: 4 * cfg.Timeout,
	})

	return &app{
		cfg:     cfg,
		logger:  logger,
		runner:  runner,
		gateway: gateway,
		labels:  store,
		loader:  loader,
		engine:  eng,
	}
}

// commandContext returns a context bounded by the configured command timeout
func (a *app) commandContext() (context.Context, context.CancelFunc) {
	d := a.cfg.Timeout
	if d <= 0 {
		d = shell.DefaultTimeout
	}
	return context.WithTimeout(context.Background(), 4*d)
}

// recordSnapshot commits the device hide-list to the history repository
func (a *app) recordSnapshot(ctx context.Context, message string) (bool, models.HideSet, error) {
	set, err := a.gateway.List(ctx)
	if err != nil {
		return false, nil, err
	}
	rec, err := history.Open(a.cfg.HistoryDir)
	if err != nil {
		return false, nil, err
	}
	changed, err := rec.Record(set, message)
	if err != nil {
		return false, nil, err
	}
	a.logger.Debug("snapshot", "changed", changed, "hidden", len(set))
	return changed, set, nil
}

// diffSinceSnapshot compares the device hide-list against the last snapshot
func (a *app) diffSinceSnapshot(ctx context.Context) (*history.Change, error) {
	set, err := a.gateway.List(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := history.Open(a.cfg.HistoryDir)
	if err != nil {
		return nil, err
	}
	last, err := rec.Last()
	if errors.Is(err, history.ErrNoHistory) {
		last = models.NewHideSet()
	} else if err != nil {
		return nil, err
	}
	return history.Diff(last, set), nil
}

// setHidden changes one package directly through the gateway
func (a *app) setHidden(ctx context.Context, pkg string, hidden bool) (bool, error) {
	if !models.ValidPackageID(pkg) {
		return false, fmt.Errorf("invalid package id %q", pkg)
	}
	if hidden && (models.IsDenied(pkg) || a.labels.Denied(pkg)) {
		return false, fmt.Errorf("%s is on the deny list", pkg)
	}

	set, err := a.gateway.List(ctx)
	if err != nil {
		return false, err
	}
	if set.Has(pkg) == hidden {
		return false, nil
	}
	start := time.Now()
	if err := a.gateway.Set(ctx, pkg, hidden); err != nil {
		return false, err
	}
	a.logger.Info("hide-list updated", "package", pkg, "hidden", hidden, "took", time.Since(start))
	return true, nil
}
