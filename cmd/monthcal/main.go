package main

import (
	"os"

	"github.com/spf13/cobra"

	"monthcal/internal/config"
	appLog "monthcal/internal/log"
)

// version is overridden at build time via -ldflags.
var version = "0.1.0-dev"

// rootFlags holds values of the persistent flags shared by all commands.
type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "monthcal",
		Short: "Render a month of calendar events into a static HTML page",
		Long: `monthcal fetches the events of the configured Google calendars and ICS
feeds for one month and renders them into a static HTML month grid.

It can run as:
  - a one-shot renderer (default, "render")
  - a small web server that re-renders on a cron schedule ("serve")`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			appLog.SetLevel(appLog.ParseLevel(flags.logLevel))
			appLog.SetFormat(flags.logFormat)
		},
	}
	root.SetVersionTemplate(`{{printf "monthcal version %s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "monthcal.yaml", "Path to config file (YAML or JSON)")
	level, format := logDefaults()
	pf.StringVar(&flags.logLevel, "log-level", level, "Log level: debug, info, error (env MONTHCAL_LOG_LEVEL)")
	pf.StringVar(&flags.logFormat, "log-format", format, "Log format: text or json (env MONTHCAL_LOG_FORMAT)")

	root.AddCommand(newRenderCmd(flags))
	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newConfigCmd(flags))

	return root
}

// logDefaults reads the MONTHCAL_LOG_* variables; flags given on the command
// line still win.
func logDefaults() (level, format string) {
	level, format = "info", "text"
	over, err := config.FromEnv()
	if err != nil {
		return level, format
	}
	if over.LogLevel != "" {
		level = over.LogLevel
	}
	if over.LogFormat != "" {
		format = over.LogFormat
	}
	return level, format
}

func main() {
	// No subcommand runs a single render.
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "render")
	}

	if err := newRootCmd().Execute(); err != nil {
		appLog.Error("monthcal failed", err)
		os.Exit(1)
	}
}
