package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"resume-tailor/internal/records"
	"resume-tailor/internal/shared/metrics"
)

//nolint:gochecknoglobals // Cobra boilerplate
var listFilter records.Filter

//nolint:gochecknoglobals // Cobra boilerplate
var listArchived bool

//nolint:gochecknoglobals // Cobra boilerplate
var unfavorite bool

//nolint:gochecknoglobals // Cobra boilerplate
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved applications, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var entries []records.Entry
		var err error
		if listArchived {
			entries, err = app.Records.ListArchived()
		} else {
			entries, err = app.Records.ListAll()
		}
		if err != nil {
			return err
		}
		entries = listFilter.Apply(entries)
		records.SortByCreated(entries)
		w := cmd.OutOrStdout()
		for _, e := range entries {
			fmt.Fprintf(w, "%-40s %-20s %-25s %s\n", e.ID, e.Record.Job.Company, e.Record.Job.Position, e.Record.Meta.DateCreated)
		}
		return nil
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var archiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Move an application into the archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := app.Records.Archive(args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var restoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Move an archived application back",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := app.Records.Restore(args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var archiveExpiredCmd = &cobra.Command{
	Use:   "archive-expired",
	Short: "Archive applications whose expected response date has passed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		moved, err := app.Records.ArchiveExpired(time.Now())
		metrics.AddRecordsArchived(len(moved))
		if printErr := printJSON(cmd.OutOrStdout(), moved); printErr != nil {
			return printErr
		}
		return err
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var favoriteCmd = &cobra.Command{
	Use:   "favorite <id>",
	Short: "Mark an application as a favorite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		record, err := app.Records.SetFavorite(args[0], !unfavorite)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s favorite=%t\n", args[0], record.Meta.Favorite)
		return nil
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	listCmd.Flags().BoolVar(&listArchived, "archived", false, "List the archive instead")
	listCmd.Flags().StringVarP(&listFilter.Query, "query", "q", "", "Free-text search")
	listCmd.Flags().StringVar(&listFilter.Company, "company", "", "Exact company name")
	listCmd.Flags().BoolVar(&listFilter.FavoriteOnly, "favorites", false, "Only favorites")
	listCmd.Flags().StringVar(&listFilter.Model, "model", "", "Model used")
	favoriteCmd.Flags().BoolVar(&unfavorite, "off", false, "Clear the favorite flag")

	rootCmd.AddCommand(listCmd, archiveCmd, restoreCmd, archiveExpiredCmd, favoriteCmd)
}
