package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/byte4ever/bugbash/workspace"
)

func newSyncCmd() *cobra.Command {
	var (
		targets []string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync template content into folders",
		Long: "sync copies the template folder's " +
			"content into each custom folder, " +
			"overwriting existing files but never " +
			"deleting extra ones.",
		Args: cobra.NoArgs,
		RunE: func(
			cmd *cobra.Command, _ []string,
		) error {
			root, cfg, manifest, err :=
				loadConfig(cmd)
			if err != nil {
				return err
			}

			synced, err := workspace.Sync(
				workspace.SyncOptions{
					Root:       root,
					MainFolder: cfg.MainFolder,
					CustomFolders: manifest.
						MergeFolders(
							cfg.CustomFolders,
						),
					Targets:      targets,
					ExcludeNames: cfg.ExcludeNames,
					DryRun:       dryRun,
				},
			)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if len(synced) == 0 {
				fmt.Fprintln(
					out, "No target folders found.",
				)

				return nil
			}

			fmt.Fprintf(
				out,
				"Synced (%d): %s\n",
				len(synced),
				strings.Join(synced, ", "),
			)

			return nil
		},
	}

	cmd.Flags().StringSliceVar(
		&targets, "targets", nil,
		"restrict the sync to these folders",
	)
	cmd.Flags().BoolVar(
		&dryRun, "dry-run", false,
		"log planned copies without writing",
	)

	return cmd
}
