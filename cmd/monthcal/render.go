package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"monthcal/internal/capture"
	"monthcal/internal/config"
	appLog "monthcal/internal/log"
	"monthcal/internal/pipeline"
)

type renderFlags struct {
	date      string
	outputDir string
	png       bool
}

func newRenderCmd(root *rootFlags) *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Fetch one month of events and write the HTML calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runRender(ctx, root, flags)
		},
	}

	cmd.Flags().StringVar(&flags.date, "date", "", "Report date (YYYY-MM-DD); defaults to today")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Directory for the HTML file (overrides config)")
	cmd.Flags().BoolVar(&flags.png, "png", false, "Also capture a PNG screenshot with headless Chromium")

	return cmd
}

func runRender(ctx context.Context, root *rootFlags, flags *renderFlags) error {
	cfg, loc, err := loadConfig(root.configPath)
	if err != nil {
		return err
	}
	if flags.outputDir != "" {
		cfg.OutputDir = flags.outputDir
	}

	reportDate, err := parseReportDate(flags.date, loc, time.Now())
	if err != nil {
		return err
	}

	targets, err := buildTargets(ctx, cfg)
	if err != nil {
		return err
	}

	res, err := pipeline.New(targets, loc, cfg.OutputDir).Run(ctx, reportDate)
	if err != nil {
		return err
	}

	if flags.png || cfg.Capture.Enabled {
		if err := capturePage(ctx, cfg, res.Path); err != nil {
			return err
		}
	}

	fmt.Println(res.Path)
	return nil
}

// parseReportDate reads YYYY-MM-DD in loc; empty means now.
func parseReportDate(value string, loc *time.Location, now time.Time) (time.Time, error) {
	if value == "" {
		return now.In(loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", value, err)
	}
	return t, nil
}

func capturePage(ctx context.Context, cfg *config.Config, htmlPath string) error {
	u, err := capture.FileURL(htmlPath)
	if err != nil {
		return err
	}
	out := capture.PNGPath(htmlPath)
	err = capture.CalendarPNG(ctx, capture.Options{
		URL:        u,
		OutputPath: out,
		Width:      cfg.Capture.Width,
		Height:     cfg.Capture.Height,
	})
	if err != nil {
		return err
	}
	appLog.Info("calendar captured", "path", out)
	return nil
}
