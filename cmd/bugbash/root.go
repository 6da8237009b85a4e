package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/byte4ever/bugbash/config"
	"github.com/byte4ever/bugbash/git"
	"github.com/byte4ever/bugbash/git/github"
	"github.com/byte4ever/bugbash/git/gitlab"
)

// errRunFailed signals a completed run with failed or
// force-blocked folders; the process exits non-zero
// without an extra error line.
var errRunFailed = errors.New(
	"one or more folders failed",
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bugbash",
		Short: "Publish variant folders as branches",
		Long: "bugbash publishes local variant " +
			"folders as branches of a remote " +
			"repository: the template folder as an " +
			"orphan branch, every custom folder as " +
			"a branch based on the remote main " +
			"branch, optionally with a pull request.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String(
		"root", ".",
		"workspace root directory",
	)

	root.AddCommand(
		newCreateCmd(),
		newSyncCmd(),
		newPushCmd(),
		newPushPRCmd(),
	)

	return root
}

// loadConfig resolves the workspace root flag and loads
// the .env configuration plus the optional variants
// manifest.
func loadConfig(
	cmd *cobra.Command,
) (string, *config.Config, *config.Manifest, error) {
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return "", nil, nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return "", nil, nil, err
	}

	manifest, err := config.LoadManifest(root)
	if err != nil {
		return "", nil, nil, err
	}

	return root, cfg, manifest, nil
}

// newGitProvider selects the hosting platform
// implementation. The repository is derived from the
// configured remote URL; the configured username is the
// repository owner, matching the single-user workflow
// this tool automates.
func newGitProvider(
	server string,
	gitlabHost string,
	cfg *config.Config,
) (git.GitProvider, error) {
	const errCtx = "creating git provider"

	switch server {
	case "github":
		p, err := github.NewProvider(github.Config{
			RepoOwner:   cfg.Username,
			Repo:        repoNameFromURL(cfg.RepoURL),
			AccessToken: cfg.Token,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return p, nil

	case "gitlab":
		p, err := gitlab.NewProvider(gitlab.Config{
			Host: gitlabHost,
			Repo: cfg.Username + "/" +
				repoNameFromURL(cfg.RepoURL),
			AccessToken: cfg.Token,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return p, nil

	default:
		return nil, fmt.Errorf(
			"%s: unknown git server %q "+
				"(want github or gitlab)",
			errCtx, server,
		)
	}
}

// repoNameFromURL extracts the repository name from an
// SSH (git@host:owner/repo.git) or HTTPS
// (https://host/owner/repo.git) remote URL.
func repoNameFromURL(url string) string {
	name := strings.TrimSuffix(
		strings.TrimSuffix(url, "/"), ".git",
	)

	if idx := strings.LastIndexAny(
		name, "/:",
	); idx >= 0 {
		name = name[idx+1:]
	}

	return name
}
