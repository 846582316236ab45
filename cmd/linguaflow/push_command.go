package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"linguaflow/internal/api"
	"linguaflow/internal/syncclient"
)

func newPushCommand(ctx *commandContext) *cobra.Command {
	var fileFlag string
	var langFlag string
	var deprecateFlag []string
	var patternFlag string

	cmd := &cobra.Command{
		Use:   "push [project-id]",
		Short: "Upload local translations to the server",
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

			translations, err := loadPushFiles(fileFlag, patternFlag)
			if err != nil {
				return err
			}
			if len(translations) == 0 {
				return fmt.Errorf("nothing to push; no translation files found")
			}

			result, err := client.Push(cmd.Context(), api.PushRequest{
				ProjectID:    projectID,
				Translations: translations,
				Lang:         langFlag,
				Deprecate:    deprecateFlag,
			})
			if err != nil {
				return err
			}

			if ctx.jsonMode() {
				return writeJSON(cmd, result)
			}
			printPushResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Translation file to push (default "+syncclient.DefaultFileName+")")
	cmd.Flags().StringVar(&langFlag, "lang", "", "Language code the values belong to (defaults to the project default)")
	cmd.Flags().StringSliceVar(&deprecateFlag, "deprecate", nil, "Key names to mark deprecated")
	cmd.Flags().StringVar(&patternFlag, "pattern", "", "Glob of translation files to push instead of --file")

	return cmd
}

// loadPushFiles reads either the single --file or every file matching
// --pattern, merging later files over earlier ones on key overlap.
func loadPushFiles(file, pattern string) (api.TranslationMap, error) {
	if pattern == "" {
		if file == "" {
			file = syncclient.DefaultFileName
		}
		return syncclient.ReadTranslationFile(file)
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pattern %q matched no files", pattern)
	}

	merged := api.TranslationMap{}
	for _, match := range matches {
		part, err := syncclient.ReadTranslationFile(match)
		if err != nil {
			return nil, err
		}
		merged = syncclient.Merge(merged, part)
	}
	return merged, nil
}

func printPushResult(cmd *cobra.Command, result *api.PushResponse) {
	renderCounters(cmd.OutOrStdout(), "Counter", [][]string{
		{"Keys created", fmt.Sprintf("%d", result.KeysCreated)},
		{"Keys updated", fmt.Sprintf("%d", result.KeysUpdated)},
		{"Translations created", fmt.Sprintf("%d", result.TranslationsCreated)},
		{"Translations updated", fmt.Sprintf("%d", result.TranslationsUpdated)},
		{"Deprecated", fmt.Sprintf("%d", result.Deprecated)},
	})
	for _, soft := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", soft)
	}
}
