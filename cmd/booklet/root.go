package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/booklet/internal/api"
	"github.com/jackzampolin/booklet/internal/config"
	"github.com/jackzampolin/booklet/internal/home"
	"github.com/jackzampolin/booklet/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "booklet",
	Short: "Print-ready booklet assembly from PDF fragments",
	Long: `Booklet assembles press-ready planner booklets from PDF fragments.

A job names one cover, weekly planner templates and content documents.
The engine:
  - Fills cover and planner form fields, including holidays
  - Converts fragments to grayscale where requested
  - Pads the result to a multiple of four pages for saddle stitching
  - Reports colour and black-and-white page counts for pricing`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: <home>/config.yaml or ./config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "booklet home directory (default: ~/.booklet)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml, json or text",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the home directory and loads the config. An explicit
// --config wins over the home directory's config file.
func loadConfig() (*config.Manager, *home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, err
	}
	file := cfgFile
	if file == "" && h.ConfigExists() {
		file = h.ConfigPath()
	}
	mgr, err := config.NewManager(file)
	if err != nil {
		return nil, nil, err
	}
	return mgr, h, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: config.ParseLogLevel(level),
	}))
}
