package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/booklet/internal/api"
	"github.com/jackzampolin/booklet/internal/jobcfg"
	"github.com/jackzampolin/booklet/internal/server/endpoints"
	"github.com/jackzampolin/booklet/internal/svcctx"
)

var (
	buildDest    string
	buildPreview bool
)

var buildCmd = &cobra.Command{
	Use:   "build <job-file>",
	Short: "Assemble a booklet locally",
	Long: `Assemble a booklet from a YAML or JSON job file without a server.

The PDF is written to the home output directory unless --dest is given.

Examples:
  booklet build planner-2026.yaml
  booklet build planner-2026.yaml --preview
  booklet build job.json --dest /tmp/planner.pdf -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, h, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()
		logger := newLogger(os.Stderr, cfg.LogLevel)

		job, err := jobcfg.Load(args[0])
		if err != nil {
			return err
		}
		builder, err := jobcfg.NewBuilder(cfg)
		if err != nil {
			return err
		}
		opts, err := builder.Options(job.Options)
		if err != nil {
			return err
		}
		if buildPreview {
			opts.Preview = true
		}

		services := svcctx.NewLocal(cfg, logger)
		res, err := services.Engine.Assemble(cmd.Context(), job.Book, job.Fragments, opts)
		if err != nil {
			return err
		}

		path := buildDest
		if path == "" {
			name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			if path, err = h.WriteOutput(name, opts.Preview, res.Bytes); err != nil {
				return err
			}
		} else if err := os.WriteFile(path, res.Bytes, 0o644); err != nil {
			return fmt.Errorf("failed to write booklet: %w", err)
		}

		return api.Output(endpoints.AssembleResponse{
			BuildID:    res.BuildID,
			Path:       path,
			Bytes:      len(res.Bytes),
			Accounting: res.Accounting,
		})
	},
}

var estimateCmd = &cobra.Command{
	Use:   "estimate <job-file>",
	Short: "Estimate page counts for a job locally",
	Long: `Estimate the page accounting of a full build without assembling it.

The job's color_map overrides fragment colour modes, so alternative print
options can be priced without editing the fragments.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()

		job, err := jobcfg.Load(args[0])
		if err != nil {
			return err
		}

		services := svcctx.NewLocal(cfg, newLogger(os.Stderr, cfg.LogLevel))
		acct, err := services.Engine.Estimate(cmd.Context(), job.Book, job.Fragments, job.ColorMap)
		if err != nil {
			return err
		}
		return api.Output(acct)
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildDest, "dest", "d", "", "Output PDF path (default: <home>/output/<job>.pdf)")
	buildCmd.Flags().BoolVar(&buildPreview, "preview", false, "Build a short preview")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(estimateCmd)
}
