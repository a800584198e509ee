package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pfrederiksen/concert-server/internal/config"
	"github.com/pfrederiksen/concert-server/internal/logger"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "dev"

var (
	flagConfig      string
	flagLogLevel    string
	flagPort        string
	flagSnapshotDir string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "concert-server",
		Short: "Caching JSON proxy for Melon Ticket listings",
		Long: `concert-server fetches performance listings and ticket-open
announcements from Melon Ticket, normalises them into a stable JSON shape
and serves them over HTTP with a per-category cache.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")

	cmd.AddCommand(
		newServeCmd(),
		newFetchCmd(),
		newTicketOpenCmd(),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig resolves configuration and applies explicitly set flags on top.
// Log output goes to logOut.
func loadConfig(cmd *cobra.Command, logOut io.Writer) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		cfg.Server.Port = flagPort
	}
	if flags.Lookup("snapshot-dir") != nil && flags.Changed("snapshot-dir") {
		cfg.Cache.SnapshotDir = flagSnapshotDir
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.SetDefault(logger.New(level, logOut))
	return cfg, nil
}

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "concert-server %s\n", Version)
			return err
		},
	}
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
