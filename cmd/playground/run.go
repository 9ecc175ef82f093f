package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/playground-cli/internal/execute"
)

func newRunCmd(apiURL *string, verbose *bool) *cobra.Command {
	var snippetID string

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Execute JavaScript from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*apiURL, *verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			code, err := readCode(cmd, args)
			if err != nil {
				return err
			}

			runner := execute.NewRunner(app.session.Client(), app.logger)
			result, runErr := runner.Run(cmd.Context(), code, snippetID)
			app.session.EscalateAuthError(runErr)

			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&snippetID, "snippet", "", "record this run against a saved snippet id")
	return cmd
}

// readCode loads the program text: from the named file, or stdin when no
// argument (or "-") is given.
func readCode(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", args[0], err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func printResult(w io.Writer, result execute.Result) {
	if result.HasError {
		fmt.Fprintln(w, errorStyle.Render(result.Output))
	} else {
		fmt.Fprint(w, result.Output)
	}
	if result.ExecutionTime >= 0 {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Executed in %dms", result.ExecutionTime)))
	}
}
