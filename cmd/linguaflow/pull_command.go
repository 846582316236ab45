package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"linguaflow/internal/syncclient"
)

func newPullCommand(ctx *commandContext) *cobra.Command {
	var langFlag string
	var namespaceFlag string
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "pull [project-id]",
		Short: "Download approved translations into a local file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := ctx.resolveProjectID(args)
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}

			snapshot, err := client.Pull(cmd.Context(), projectID, langFlag, namespaceFlag)
			if err != nil {
				return err
			}

			path := outputFlag
			if path == "" {
				path = syncclient.DefaultFileName
			}
			if err := syncclient.WriteTranslationFile(path, snapshot.Translations); err != nil {
				return err
			}

			if ctx.jsonMode() {
				return writeJSON(cmd, snapshot)
			}

			out := cmd.OutOrStdout()
			total := 0
			namespaces := make([]string, 0, len(snapshot.Translations))
			for namespace, keys := range snapshot.Translations {
				namespaces = append(namespaces, namespace)
				total += len(keys)
			}
			sort.Strings(namespaces)

			fmt.Fprintf(out, "Pulled %d translations for %s (%s) into %s\n", total, snapshot.Project, snapshot.Language, path)
			for _, namespace := range namespaces {
				fmt.Fprintf(out, "  %s: %d keys\n", namespace, len(snapshot.Translations[namespace]))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&langFlag, "lang", "", "Language code to pull (defaults to the project default)")
	cmd.Flags().StringVar(&namespaceFlag, "namespace", "", "Restrict the pull to one namespace")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file path (default "+syncclient.DefaultFileName+")")

	return cmd
}
