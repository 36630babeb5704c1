package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resume-tailor/internal/records"
)

//nolint:gochecknoglobals // Cobra boilerplate
var renderCmd = &cobra.Command{
	Use:   "render [id...]",
	Short: "Re-render documents for saved applications into the results directory",
	Long: `Re-render the résumé and cover letter of saved applications, for example
after editing a template. Without arguments every current application is
rendered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var entries []records.Entry
		if len(args) == 0 {
			all, err := app.Records.ListAll()
			if err != nil {
				return err
			}
			entries = all
		}
		for _, id := range args {
			record, err := app.Records.Load(id)
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			entries = append(entries, records.Entry{ID: id, Record: record})
		}

		written, err := app.Generator.RenderAll(entries)
		for _, path := range written {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		return err
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(renderCmd)
}
