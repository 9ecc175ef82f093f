package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/playground-cli/internal/session"
)

func newLoginCmd(apiURL *string, verbose *bool) *cobra.Command {
	var signUp bool
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in (or sign up with --signup)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*apiURL, *verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			creds := session.Credentials{
				Username: username,
				Email:    email,
				Password: password,
			}
			user, err := app.session.Login(cmd.Context(), creds, signUp)
			if err != nil {
				var fieldErrs session.FieldErrors
				if errors.As(err, &fieldErrs) {
					for field, msg := range fieldErrs {
						fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(field+": "+msg))
					}
					return fmt.Errorf("validation failed")
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Logged in as "+user.Username))
			return nil
		},
	}

	cmd.Flags().BoolVar(&signUp, "signup", false, "create a new account")
	cmd.Flags().StringVar(&username, "username", "", "username (sign-up only)")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(apiURL *string, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*apiURL, *verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			// Idempotent: logging out while anonymous is fine.
			if err := app.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(apiURL *string, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*apiURL, *verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			snap := app.session.Current()
			if snap.Status != session.StatusAuthenticated || snap.User == nil {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Not logged in"))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", snap.User.Username, snap.User.Email)
			return nil
		},
	}
}
