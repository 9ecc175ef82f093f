package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sakif/playground-cli/internal/history"
	"github.com/sakif/playground-cli/internal/model"
)

func newHistoryCmd(apiURL *string, verbose *bool) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show your execution history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*apiURL, *verbose)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.requireLogin(); err != nil {
				return err
			}

			paginator := history.NewPaginator(app.session.Client(), app.logger)

			// Stats failure degrades to absence: the history still renders.
			stats := paginator.FetchStats(cmd.Context())

			if _, err := paginator.FetchPage(cmd.Context()); err != nil {
				app.session.EscalateAuthError(err)
				return err
			}
			for all && paginator.HasMore() {
				if _, err := paginator.LoadMore(cmd.Context()); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if stats != nil {
				printStats(out, stats)
				fmt.Fprintln(out)
			}

			records := paginator.Records()
			if len(records) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No execution history yet."))
				return nil
			}
			for _, rec := range records {
				printRecord(out, rec)
			}
			if paginator.HasMore() {
				fmt.Fprintln(out, mutedStyle.Render("(more available — rerun with --all)"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "fetch every page, not just the first")
	return cmd
}

func newStatsCmd(apiURL *string, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show your execution statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*apiURL, *verbose)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.requireLogin(); err != nil {
				return err
			}

			paginator := history.NewPaginator(app.session.Client(), app.logger)
			stats := paginator.FetchStats(cmd.Context())
			if stats == nil {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Stats unavailable"))
				return nil
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

func printStats(w io.Writer, stats *model.ExecutionStats) {
	fmt.Fprintf(w, "%s %d   %s %.1fms   %s %d\n",
		titleStyle.Render("Total:"), stats.TotalExecutions,
		titleStyle.Render("Average:"), stats.AvgExecutionTime,
		titleStyle.Render("Errors:"), stats.ErrorCount,
	)
}

func printRecord(w io.Writer, rec model.ExecutionRecord) {
	header := rec.CreatedAt.Format("2006-01-02 15:04") + fmt.Sprintf("  %dms", rec.ExecutionTime)
	if rec.SnippetID != "" {
		header += "  (from saved snippet)"
	}
	fmt.Fprintln(w, titleStyle.Render(header))
	fmt.Fprintln(w, "  "+firstLine(rec.Code))
	if rec.HasError() {
		fmt.Fprintln(w, "  "+errorStyle.Render(rec.Error))
	} else if rec.Output != "" {
		fmt.Fprintln(w, "  "+successStyle.Render(firstLine(rec.Output)))
	}
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
