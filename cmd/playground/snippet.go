package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/playground-cli/internal/snippet"
)

func newSnippetCmd(apiURL *string, verbose *bool) *cobra.Command {
	root := &cobra.Command{Use: "snippet", Short: "Manage saved snippets"}
	root.AddCommand(newSnippetListCmd(apiURL, verbose))
	root.AddCommand(newSnippetSaveCmd(apiURL, verbose))
	root.AddCommand(newSnippetEditCmd(apiURL, verbose))
	root.AddCommand(newSnippetRmCmd(apiURL, verbose))
	root.AddCommand(newSnippetShareCmd(apiURL, verbose))
	return root
}

func newSnippetListCmd(apiURL *string, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your snippets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*apiURL, *verbose)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.requireLogin(); err != nil {
				return err
			}

			store := snippet.NewStore(app.session.Client(), app.logger)
			snippets, err := store.List(cmd.Context())
			if err != nil {
				app.session.EscalateAuthError(err)
				return err
			}

			if len(snippets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No snippets saved yet."))
				return nil
			}
			for _, sn := range snippets {
				visibility := "private"
				if sn.IsPublic {
					visibility = "public"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s %s\n",
					sn.ID,
					titleStyle.Render(sn.Title),
					mutedStyle.Render("("+visibility+", "+sn.CreatedAt.Format("2006-01-02")+")"),
				)
				if sn.Description != "" {
					fmt.Fprintln(cmd.OutOrStdout(), "    "+sn.Description)
				}
			}
			return nil
		},
	}
}

func newSnippetSaveCmd(apiURL *string, verbose *bool) *cobra.Command {
	var title, description, file string
	var public bool

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a new snippet from a file or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*apiURL, *verbose)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.requireLogin(); err != nil {
				return err
			}

			var fileArgs []string
			if file != "" {
				fileArgs = []string{file}
			}
			code, err := readCode(cmd, fileArgs)
			if err != nil {
				return err
			}

			store := snippet.NewStore(app.session.Client(), app.logger)
			saved, err := store.Save(cmd.Context(), snippet.Draft{
				Title:       title,
				Description: description,
				Code:        code,
				IsPublic:    public,
			})
			if err != nil {
				app.session.EscalateAuthError(err)
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Saved snippet "+saved.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "snippet title (required)")
	cmd.Flags().StringVar(&description, "description", "", "snippet description")
	cmd.Flags().StringVar(&file, "file", "", "read code from this file instead of stdin")
	cmd.Flags().BoolVar(&public, "public", false, "mark the snippet public")
	return cmd
}

func newSnippetEditCmd(apiURL *string, verbose *bool) *cobra.Command {
	var title, description, file string
	var public bool

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Rewrite a snippet (all fields are sent — this is not a patch)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*apiURL, *verbose)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.requireLogin(); err != nil {
				return err
			}

			var fileArgs []string
			if file != "" {
				fileArgs = []string{file}
			}
			code, err := readCode(cmd, fileArgs)
			if err != nil {
				return err
			}

			store := snippet.NewStore(app.session.Client(), app.logger)
			updated, err := store.Update(cmd.Context(), args[0], snippet.Draft{
				Title:       title,
				Description: description,
				Code:        code,
				IsPublic:    public,
			})
			if err != nil {
				app.session.EscalateAuthError(err)
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Updated snippet "+updated.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "snippet title (required)")
	cmd.Flags().StringVar(&description, "description", "", "snippet description")
	cmd.Flags().StringVar(&file, "file", "", "read code from this file instead of stdin")
	cmd.Flags().BoolVar(&public, "public", false, "mark the snippet public")
	return cmd
}

func newSnippetRmCmd(apiURL *string, verbose *bool) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a snippet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*apiURL, *verbose)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.requireLogin(); err != nil {
				return err
			}

			// Confirmation lives here, not in the store — the store deletes
			// unconditionally once asked.
			if !yes && !confirm(cmd, "Are you sure you want to delete this snippet?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}

			store := snippet.NewStore(app.session.Client(), app.logger)
			if err := store.Remove(cmd.Context(), args[0]); err != nil {
				app.session.EscalateAuthError(err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newSnippetShareCmd(apiURL *string, verbose *bool) *cobra.Command {
	var origin string

	cmd := &cobra.Command{
		Use:   "share <id>",
		Short: "Print the share link for a snippet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*apiURL, *verbose)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.requireLogin(); err != nil {
				return err
			}

			store := snippet.NewStore(app.session.Client(), app.logger)
			snippets, err := store.List(cmd.Context())
			if err != nil {
				app.session.EscalateAuthError(err)
				return err
			}

			for i := range snippets {
				if snippets[i].ID == args[0] {
					url, err := snippet.BuildShareURL(shareOrigin(origin, *apiURL), &snippets[i])
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), url)
					return nil
				}
			}
			return fmt.Errorf("snippet %s not found", args[0])
		},
	}

	cmd.Flags().StringVar(&origin, "origin", "", "web origin for the link (defaults to the API base URL)")
	return cmd
}

// shareOrigin picks the origin for share links: an explicit flag, the
// PLAYGROUND_WEB_ORIGIN env var, or the API base as a last resort.
func shareOrigin(flag, apiURL string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("PLAYGROUND_WEB_ORIGIN"); env != "" {
		return env
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return apiURL
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt+" [y/N] ")
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
