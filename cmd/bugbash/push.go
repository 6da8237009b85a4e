package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/byte4ever/bugbash/pusher"
)

// pushOptions holds the flags shared by push and
// push-pr.
type pushOptions struct {
	force      bool
	folders    []string
	dryRun     bool
	jsonOutput bool
	tmpDir     string
	createPR   bool
	gitServer  string
	gitlabHost string
}

func newPushCmd() *cobra.Command {
	var opts pushOptions

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push folders as branches",
		Long: "push publishes each folder as a " +
			"branch of the configured remote " +
			"repository. Unchanged folders are " +
			"skipped; a diverged remote branch is " +
			"only overwritten with --force.",
		Args: cobra.NoArgs,
		RunE: func(
			cmd *cobra.Command, _ []string,
		) error {
			return runPush(cmd, &opts)
		},
	}

	addPushFlags(cmd, &opts)
	cmd.Flags().BoolVar(
		&opts.createPR, "create-pr", false,
		"open a pull request for each pushed "+
			"custom folder",
	)

	return cmd
}

func newPushPRCmd() *cobra.Command {
	opts := pushOptions{createPR: true}

	cmd := &cobra.Command{
		Use:   "push-pr",
		Short: "Push folders and open pull requests",
		Long: "push-pr behaves like push and " +
			"additionally opens a pull request " +
			"against the main branch for each " +
			"pushed custom folder.",
		Args: cobra.NoArgs,
		RunE: func(
			cmd *cobra.Command, _ []string,
		) error {
			return runPush(cmd, &opts)
		},
	}

	addPushFlags(cmd, &opts)

	return cmd
}

func addPushFlags(
	cmd *cobra.Command,
	opts *pushOptions,
) {
	cmd.Flags().BoolVar(
		&opts.force, "force", false,
		"overwrite diverged remote branches",
	)
	cmd.Flags().StringSliceVar(
		&opts.folders, "folders", nil,
		"restrict the run to these folders",
	)
	cmd.Flags().BoolVar(
		&opts.dryRun, "dry-run", false,
		"report what would be pushed without "+
			"pushing",
	)
	cmd.Flags().BoolVar(
		&opts.jsonOutput, "json", false,
		"print the summary as JSON",
	)
	cmd.Flags().StringVar(
		&opts.tmpDir, "tmp-dir", os.TempDir(),
		"directory for the scratch repository",
	)
	cmd.Flags().StringVar(
		&opts.gitServer, "git-server", "github",
		"hosting platform: github or gitlab",
	)
	cmd.Flags().StringVar(
		&opts.gitlabHost, "gitlab-host", "",
		"GitLab instance URL (gitlab only)",
	)
}

func runPush(
	cmd *cobra.Command,
	opts *pushOptions,
) error {
	root, cfg, manifest, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	overrides := make(
		map[string]pusher.PROverride,
		len(manifest.Variants),
	)
	for _, variant := range manifest.Variants {
		overrides[variant.Name] = pusher.PROverride{
			Title:       variant.Title,
			Description: variant.Description,
		}
	}

	pcfg := pusher.Config{
		Root:       root,
		RepoURL:    cfg.RepoURL,
		MainFolder: cfg.MainFolder,
		CustomFolders: manifest.MergeFolders(
			cfg.CustomFolders,
		),
		Only:              opts.folders,
		ExcludeNames:      cfg.ExcludeNames,
		PRDescriptionFile: cfg.PRDescriptionFile,
		PRDescription:     cfg.PRDescription,
		Overrides:         overrides,
		TmpDir:            opts.tmpDir,
		Force:             opts.force,
		DryRun:            opts.dryRun,
		CreatePR:          opts.createPR,
	}

	if opts.createPR {
		pcfg.Provider, err = newGitProvider(
			opts.gitServer, opts.gitlabHost, cfg,
		)
		if err != nil {
			return err
		}
	}

	summary, err := pusher.Run(
		cmd.Context(), pcfg,
	)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if opts.jsonOutput {
		data, err := summary.JSON()
		if err != nil {
			return err
		}

		fmt.Fprintln(out, string(data))
	} else {
		for _, o := range summary.Outcomes {
			fmt.Fprintln(out, o.Line())
		}

		fmt.Fprintln(out, summary.String())
	}

	if !summary.OK() {
		return errRunFailed
	}

	return nil
}
