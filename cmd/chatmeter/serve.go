package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pario-ai/chatmeter/pkg/bridge"
	"github.com/pario-ai/chatmeter/pkg/config"
	"github.com/pario-ai/chatmeter/pkg/models"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the extension bridge on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if path := a.cfg.SettingsFile; path != "" {
				s, err := config.LoadSettings(path)
				if err != nil {
					return err
				}
				if _, err := a.meter.UpdateSettings(ctx, s); err != nil {
					return err
				}
			}

			g, ctx := errgroup.WithContext(ctx)
			srv := bridge.New(a.meter, a.logger, version)
			g.Go(func() error {
				defer stop()
				err := srv.Run(ctx, os.Stdin, os.Stdout)
				if ctx.Err() != nil {
					return nil
				}
				return err
			})
			g.Go(func() error {
				// Closing stdin unblocks the bridge's pending read on shutdown.
				<-ctx.Done()
				_ = os.Stdin.Close()
				return nil
			})
			if path := a.cfg.SettingsFile; path != "" {
				g.Go(func() error {
					return watchSettings(ctx, a, path)
				})
			}

			a.logger.Info("bridge serving", zap.String("version", version), zap.String("store", a.cfg.Storage.Path))
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			a.logger.Info("bridge stopped")
			return nil
		},
	}
}

func watchSettings(ctx context.Context, a *app, path string) error {
	return config.WatchSettings(ctx, path,
		func(s models.Settings) {
			if _, err := a.meter.UpdateSettings(ctx, s); err != nil {
				a.logger.Warn("settings file rejected", zap.String("path", path), zap.Error(err))
				return
			}
			a.logger.Info("settings reloaded", zap.String("path", path))
		},
		func(err error) {
			a.logger.Warn("settings watch", zap.String("path", path), zap.Error(err))
		},
	)
}
