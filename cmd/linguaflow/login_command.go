package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"linguaflow/internal/syncclient"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var projectFlag int64

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate via the web UI and store the token locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			authURL := strings.TrimRight(cfg.APIURL, "/") + "/login"
			out := cmd.OutOrStdout()

			token, err := syncclient.Login(cmd.Context(), syncclient.LoginOptions{
				AuthURL: authURL,
				OpenBrowser: func(loginURL string) error {
					fmt.Fprintf(out, "Open the following URL in your browser to log in:\n\n  %s\n\nWaiting for the browser callback (times out after %s)...\n", loginURL, syncclient.LoginTimeout)
					return nil
				},
			})
			if err != nil {
				return err
			}

			cfg.Token = token
			if projectFlag > 0 {
				cfg.CurrentProject = projectFlag
			}
			if err := syncclient.SaveClientConfig(ctx.configPath(), cfg); err != nil {
				return err
			}

			fmt.Fprintln(out, "Login successful; token saved.")
			return nil
		},
	}

	cmd.Flags().Int64Var(&projectFlag, "project", 0, "Project id to select as the current project")

	return cmd
}
