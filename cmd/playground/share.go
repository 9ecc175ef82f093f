package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/playground-cli/internal/api"
	"github.com/sakif/playground-cli/internal/shared"
)

// newShareCmd views (and optionally runs) a snippet someone shared. It
// works without a session on purpose: the whole point of a share link is
// that the recipient needs no account.
func newShareCmd(apiURL *string, verbose *bool) *cobra.Command {
	var run bool

	cmd := &cobra.Command{
		Use:   "share-view <token>",
		Short: "View a shared snippet by its token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if *verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			baseURL := *apiURL
			if baseURL == "" {
				baseURL = os.Getenv("PLAYGROUND_API_URL")
			}
			if baseURL == "" {
				baseURL = defaultAPIURL
			}

			// Anonymous client: no credential store, no session, no token.
			client := api.New(baseURL, api.StaticToken(""), logger)
			viewer := shared.NewViewer(client, logger)

			sn, err := viewer.Open(cmd.Context(), args[0])
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(shared.UserMessage(err)))
				if shared.Terminal(err) {
					// Dead link — nothing to retry.
					return nil
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(sn.Title))
			if sn.Description != "" {
				fmt.Fprintln(out, sn.Description)
			}
			fmt.Fprintln(out, mutedStyle.Render("By "+sn.Username+" • Created "+sn.CreatedAt.Format("Jan 2, 2006")))
			fmt.Fprintln(out)
			fmt.Fprintln(out, sn.Code)

			if run {
				fmt.Fprintln(out)
				result, _ := viewer.Run(cmd.Context())
				printResult(out, result)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&run, "run", false, "also execute the shared snippet")
	return cmd
}
