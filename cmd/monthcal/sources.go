package main

import (
	"context"
	"fmt"
	"time"

	"monthcal/internal/config"
	"monthcal/internal/gcal"
	"monthcal/internal/google"
	"monthcal/internal/ics"
	appLog "monthcal/internal/log"
	"monthcal/internal/pipeline"
)

// loadConfig loads and validates the config, logging the effective values.
func loadConfig(path string) (*config.Config, *time.Location, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config %s: %w", path, err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	appLog.Info("effective config",
		"config_path", path,
		"calendars", len(cfg.AllowedCalendarIDs),
		"ics_count", len(cfg.ICS),
		"timezone", loc.String(),
		"output_dir", cfg.OutputDir,
		"max_results", cfg.MaxResults,
	)
	return cfg, loc, nil
}

// buildTargets wires every configured calendar to its event source: Google
// calendar IDs first, then ICS feeds, in config order.
func buildTargets(ctx context.Context, cfg *config.Config) ([]pipeline.Target, error) {
	targets := make([]pipeline.Target, 0, len(cfg.AllowedCalendarIDs)+len(cfg.ICS))

	if len(cfg.AllowedCalendarIDs) > 0 {
		opts, err := google.ClientOptions(ctx, google.Auth{
			APIKey:          cfg.APIKey,
			CredentialsFile: cfg.CredentialsFile,
			TokenFile:       cfg.TokenFile,
		})
		if err != nil {
			return nil, err
		}
		client, err := gcal.NewClient(ctx, cfg.MaxResults, opts...)
		if err != nil {
			return nil, err
		}
		for _, id := range cfg.AllowedCalendarIDs {
			targets = append(targets, pipeline.Target{CalendarID: id, Source: client})
		}
	}

	if len(cfg.ICS) > 0 {
		feeds := make([]ics.Feed, 0, len(cfg.ICS))
		for _, c := range cfg.ICS {
			feeds = append(feeds, ics.Feed{ID: c.ID, URL: c.URL})
		}
		src := ics.NewSource(ics.NewFetcher(cfg.ICSCacheDir, nil), feeds...)
		for _, f := range feeds {
			targets = append(targets, pipeline.Target{CalendarID: f.ID, Source: src})
		}
	}

	return targets, nil
}
