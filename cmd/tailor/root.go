package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"resume-tailor/internal/bootstrap"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/telemetry"
)

//nolint:gochecknoglobals // Cobra boilerplate
var baseDir string

//nolint:gochecknoglobals // Cobra boilerplate
var verbose bool

//nolint:gochecknoglobals // set by PersistentPreRunE
var app *bootstrap.App

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:          "tailor",
	Short:        "Tailor a résumé and cover letter to a job posting",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			telemetry.SetOutput(io.Discard)
		}
		cfg := config.Load()
		if strings.TrimSpace(baseDir) != "" {
			cfg.BaseDir = baseDir
		}
		built, err := bootstrap.Build(cfg)
		if err != nil {
			return err
		}
		app = built
		return nil
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "", "Base directory (default TAILOR_BASE_DIR or .)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write structured logs to stdout")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
