// Command playground is a terminal client for the playground service:
// write, run, save, and share JavaScript snippets from the shell.
//
// The entry point stays minimal: parse flags, wire the session manager and
// its credential store, hand everything to the subcommands. All actual
// logic lives in the internal packages.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakif/playground-cli/internal/credential"
	"github.com/sakif/playground-cli/internal/session"
)

const defaultAPIURL = "http://localhost:3001"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var apiURL string
	var verbose bool

	root := &cobra.Command{
		Use:           "playground",
		Short:         "Run, save, and share JavaScript snippets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&apiURL, "api", "", "playground API base URL (default $PLAYGROUND_API_URL or "+defaultAPIURL+")")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newLoginCmd(&apiURL, &verbose))
	root.AddCommand(newLogoutCmd(&apiURL, &verbose))
	root.AddCommand(newWhoamiCmd(&apiURL, &verbose))
	root.AddCommand(newRunCmd(&apiURL, &verbose))
	root.AddCommand(newSnippetCmd(&apiURL, &verbose))
	root.AddCommand(newHistoryCmd(&apiURL, &verbose))
	root.AddCommand(newStatsCmd(&apiURL, &verbose))
	root.AddCommand(newShareCmd(&apiURL, &verbose))
	return root
}

// app bundles the wired session layer for one command invocation.
type app struct {
	logger  *slog.Logger
	creds   *credential.Store
	session *session.Manager
}

// loadApp wires the credential store and session manager, then blocks on
// Initialize — nothing renders an authenticated view before identity is
// settled.
func loadApp(apiURL string, verbose bool) (*app, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if apiURL == "" {
		apiURL = os.Getenv("PLAYGROUND_API_URL")
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	dbPath := os.Getenv("PLAYGROUND_STATE_DB")
	if dbPath == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving config dir: %w", err)
		}
		dbPath = filepath.Join(configDir, "playground", "credentials.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	creds, err := credential.Open(dbPath)
	if err != nil {
		return nil, err
	}

	mgr := session.NewManager(apiURL, creds, logger)
	if err := mgr.Initialize(context.Background()); err != nil {
		creds.Close()
		return nil, err
	}

	return &app{logger: logger, creds: creds, session: mgr}, nil
}

func (a *app) Close() {
	a.creds.Close()
}

// requireLogin guards commands that only make sense with a session.
func (a *app) requireLogin() error {
	if a.session.Current().Status != session.StatusAuthenticated {
		return fmt.Errorf("not logged in — run `playground login` first")
	}
	return nil
}
