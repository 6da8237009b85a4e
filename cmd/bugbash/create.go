package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/byte4ever/bugbash/workspace"
)

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create the configured folders",
		Long: "create ensures the template folder " +
			"and every configured custom folder " +
			"exist. Existing folders are left " +
			"untouched.",
		Args: cobra.NoArgs,
		RunE: func(
			cmd *cobra.Command, _ []string,
		) error {
			root, cfg, manifest, err :=
				loadConfig(cmd)
			if err != nil {
				return err
			}

			folders := manifest.MergeFolders(
				cfg.CustomFolders,
			)

			ensured, err := workspace.Create(
				root, cfg.MainFolder, folders,
			)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			fmt.Fprintf(
				out,
				"Template folder ensured: %s/\n",
				cfg.MainFolder,
			)
			fmt.Fprintf(
				out,
				"Custom folders ensured (%d): %s\n",
				len(ensured),
				strings.Join(ensured, ", "),
			)

			return nil
		},
	}
}
