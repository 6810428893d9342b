package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pario-ai/chatmeter/pkg/config"
	"github.com/pario-ai/chatmeter/pkg/logging"
	"github.com/pario-ai/chatmeter/pkg/meter"
	"github.com/pario-ai/chatmeter/pkg/notify"
	"github.com/pario-ai/chatmeter/pkg/store"
	"github.com/pario-ai/chatmeter/pkg/store/bolt"
	"github.com/pario-ai/chatmeter/pkg/store/sqlite"
)

// app is the wiring shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	meter  *meter.Meter
}

func envPaths() []string {
	paths := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".chatmeter", ".env"))
	}
	return paths
}

func openApp(ctx context.Context, configPath string) (*app, error) {
	if _, err := config.LoadEnv(envPaths()...); err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(cfg.Storage)
	if err != nil {
		return nil, err
	}
	st := store.New(backend)

	m, err := meter.New(ctx, st, meter.Options{
		Defaults: &cfg.Defaults,
		Notifier: newNotifier(cfg.Notifications, logger),
		Logger:   logger,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, store: st, meter: m}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func openBackend(cfg config.StorageConfig) (store.Backend, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	switch cfg.Driver {
	case config.DriverBolt:
		return bolt.New(cfg.Path)
	default:
		return sqlite.New(cfg.Path)
	}
}

func newNotifier(cfg config.NotificationsConfig, logger *zap.Logger) notify.Notifier {
	var n notify.Multi
	if cfg.Log {
		n = append(n, notify.NewLog(logger))
	}
	if cfg.Desktop {
		n = append(n, notify.NewDesktop())
	}
	return n
}
