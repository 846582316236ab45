package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"linguaflow/internal/syncclient"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var fileFlag string
	var langFlag string
	var namespaceFlag string
	var deprecateFlag []string

	cmd := &cobra.Command{
		Use:   "sync [project-id]",
		Short: "Pull, merge with local edits, and push back",
		Long: `Sync pulls the server snapshot, merges it with the local translation
file (local edits win on overlap), pushes the merged map, and rewrites the
local file. Concurrent divergent edits favor the local copy.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := ctx.resolveProjectID(args)
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}

			result, err := client.Sync(cmd.Context(), syncclient.SyncOptions{
				ProjectID: projectID,
				FilePath:  fileFlag,
				Lang:      langFlag,
				Namespace: namespaceFlag,
				Deprecate: deprecateFlag,
			})
			if err != nil {
				return err
			}

			if ctx.jsonMode() {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Pulled %d server values, wrote merged file %s\n", result.Pulled, result.FilePath)
			printPushResult(cmd, &result.Pushed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Translation file to sync (default "+syncclient.DefaultFileName+")")
	cmd.Flags().StringVar(&langFlag, "lang", "", "Language code to sync (defaults to the project default)")
	cmd.Flags().StringVar(&namespaceFlag, "namespace", "", "Restrict the sync to one namespace")
	cmd.Flags().StringSliceVar(&deprecateFlag, "deprecate", nil, "Key names to mark deprecated during the push")

	return cmd
}
