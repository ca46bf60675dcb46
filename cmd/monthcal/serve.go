package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"monthcal/internal/config"
	appLog "monthcal/internal/log"
	"monthcal/internal/pipeline"
	"monthcal/internal/web"
)

func newServeCmd(root *rootFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the current month and re-render it on the refresh schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loc, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			return runServe(cmd.Context(), cfg, loc)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func runServe(parent context.Context, cfg *config.Config, loc *time.Location) error {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	targets, err := buildTargets(ctx, cfg)
	if err != nil {
		return err
	}
	p := pipeline.New(targets, loc, cfg.OutputDir)

	refresh := func() {
		res, err := p.Run(ctx, time.Now().In(loc))
		if err != nil {
			// Keep serving the previous page; the next tick retries.
			appLog.Error("scheduled render failed", err)
			return
		}
		if cfg.Capture.Enabled {
			if err := capturePage(ctx, cfg, res.Path); err != nil {
				appLog.Error("scheduled capture failed", err)
			}
		}
	}

	c, runNow, err := newScheduler(loc, cfg.RefreshCron, refresh)
	if err != nil {
		return err
	}

	runNow()
	c.Start()
	defer func() {
		<-c.Stop().Done()
	}()

	appLog.Info("serving calendar", "listen", cfg.Listen, "refresh", cfg.RefreshCron)
	return web.NewServer(cfg, p).ListenAndServe(ctx)
}

// newScheduler registers job on spec. Runs never overlap: a tick that fires
// while the previous run is still going is skipped. runNow goes through the
// same guard.
func newScheduler(loc *time.Location, spec string, job func()) (*cron.Cron, func(), error) {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger), cron.Recover(logger)),
	)
	id, err := c.AddFunc(spec, job)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	wrapped := c.Entry(id).WrappedJob
	return c, wrapped.Run, nil
}

// cronLogger routes cron's own messages through the app logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	appLog.Error("cron: "+msg, err, kv...)
}
