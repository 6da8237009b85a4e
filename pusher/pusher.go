// Package pusher orchestrates publishing variant
// folders to a remote git repository. For each folder it
// resolves a branch-creation strategy, snapshots the
// folder content, detects whether the content actually
// differs from the remote tip, negotiates a safe or
// forced push, and records a per-folder outcome. Folders
// are fully isolated: one folder's failure never affects
// another's execution path.
package pusher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/byte4ever/bugbash/fileset"
	"github.com/byte4ever/bugbash/git"
	"github.com/byte4ever/bugbash/strategy"
)

// Config holds all settings for a push run. Use a Config
// struct instead of many arguments.
type Config struct {
	// Root is the workspace directory containing the
	// folders.
	Root string

	// RepoURL is the remote repository URL.
	RepoURL string

	// MainFolder is the template folder name, pushed
	// as the remote main branch.
	MainFolder string

	// CustomFolders are the variant folder names.
	CustomFolders []string

	// Only restricts the run to the named folders.
	// Empty means template plus all custom folders.
	Only []string

	// ExcludeNames are file or directory names dropped
	// from snapshots when a folder has no .gitignore.
	ExcludeNames []string

	// PRDescriptionFile is the per-folder description
	// file name. When set, a folder missing it (or
	// with a blank one) is skipped entirely.
	PRDescriptionFile string

	// PRDescription is a static description used when
	// no description file is configured.
	PRDescription string

	// Overrides carries per-folder PR settings from
	// the variants manifest, keyed by folder name.
	Overrides map[string]PROverride

	// TmpDir is the directory for the scratch work
	// repository.
	TmpDir string

	// Force authorizes forced pushes for this run.
	// Without it a diverging branch terminates in
	// needs-force.
	Force bool

	// DryRun resolves strategies and detects changes
	// but skips all push and PR side effects.
	DryRun bool

	// CreatePR opens a pull request for every pushed
	// custom folder.
	CreatePR bool

	// Provider creates pull requests on a git hosting
	// platform. Required when CreatePR is set.
	Provider git.GitProvider
}

// Run executes a push run over the enumerated folders
// and returns the aggregated summary. Only setup errors
// (no folders, work repository creation) are returned;
// per-folder errors are recorded in the summary.
func Run(
	ctx context.Context,
	cfg Config,
) (*Summary, error) {
	const errCtx = "running folder push"

	if cfg.CreatePR && cfg.Provider == nil {
		return nil, fmt.Errorf(
			"%s: pr creation requires a provider",
			errCtx,
		)
	}

	folders := EnumerateFolders(cfg)
	if len(folders) == 0 {
		return nil, fmt.Errorf(
			"%s: no folders to push", errCtx,
		)
	}

	workDir, err := os.MkdirTemp(
		cfg.TmpDir, "bugbash-push-",
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: temp dir: %w", errCtx, err,
		)
	}

	repo, err := git.Init(workDir, cfg.RepoURL)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: init work repo: %w", errCtx, err,
		)
	}

	defer func() {
		if cleanErr := repo.Clean(); cleanErr != nil {
			slog.Error(
				"failed to clean work repo",
				"error", cleanErr,
			)
		}
	}()

	// An empty remote has nothing to fetch; branch
	// existence checks then simply come up empty.
	if err := repo.Fetch(); err != nil {
		slog.Warn(
			"fetch failed, assuming empty remote",
			"error", err,
		)
	}

	summary := &Summary{}

	for _, folder := range folders {
		outcome := processFolder(
			ctx, repo, cfg, folder,
		)
		summary.Record(outcome)

		slog.Info(
			"folder processed",
			"folder", folder.Name,
			"status", string(outcome.Status),
		)
	}

	return summary, nil
}

// processFolder runs the full per-folder pipeline:
// required-file validation, branch strategy resolution,
// snapshot, change detection, push negotiation, and PR
// creation. Every exit path yields exactly one Outcome.
func processFolder(
	ctx context.Context,
	repo *git.Repo,
	cfg Config,
	folder Folder,
) Outcome {
	outcome := Outcome{
		Folder: folder.Name,
		Branch: folder.Name,
	}

	// Validation phase: a folder failing here is
	// excluded before any branch or network work.
	if !folder.IsTemplate {
		if err := fileset.RequireNonBlank(
			filepath.Join(
				folder.Path,
				fileset.RequiredFileName(folder.Name),
			),
		); err != nil {
			outcome.Status = StatusSkippedMissingFile
			outcome.Reason = err.Error()

			return outcome
		}

		if cfg.PRDescriptionFile != "" {
			if err := fileset.RequireNonBlank(
				filepath.Join(
					folder.Path,
					cfg.PRDescriptionFile,
				),
			); err != nil {
				outcome.Status = StatusSkippedNoDescription
				outcome.PR = git.PRStateSkippedNoDescription
				outcome.Reason = err.Error()

				return outcome
			}
		}
	}

	_, branchExists := repo.RemoteTip(folder.Name)
	_, mainExists := repo.RemoteTip(cfg.MainFolder)

	target := strategy.Resolve(
		folder.Name,
		folder.IsTemplate,
		branchExists,
		cfg.MainFolder,
		mainExists,
	)

	if target.Kind == strategy.Unresolvable {
		outcome.Status = StatusFailed
		outcome.Reason = target.Reason

		return outcome
	}

	snap, err := takeSnapshot(
		repo, cfg, folder, target,
	)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = err.Error()

		return outcome
	}

	differs, err := contentDiffers(
		repo, snap, branchExists,
	)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = err.Error()

		return outcome
	}

	if !differs {
		outcome.Status = StatusSkippedNoChange

		return outcome
	}

	if cfg.DryRun {
		outcome.Status = StatusWouldPush
		outcome.Reason = fmt.Sprintf(
			"base %s", target.Kind,
		)

		return outcome
	}

	outcome = negotiatePush(
		repo, cfg, folder, outcome,
	)

	if cfg.CreatePR && !folder.IsTemplate &&
		pushed(outcome.Status) {
		outcome = requestPR(
			ctx, cfg, folder, outcome,
		)
	}

	return outcome
}

// contentDiffers implements change detection. A branch
// absent from the remote always differs (first push). A
// snapshot tagged no-diff short-circuits. Otherwise the
// snapshot's tree hash is compared with the remote tip's
// tree; equal trees mean nothing to push.
func contentDiffers(
	repo *git.Repo,
	snap snapshot,
	branchExists bool,
) (bool, error) {
	const errCtx = "detecting content change"

	if !branchExists {
		return true, nil
	}

	if snap.NoDiff {
		return false, nil
	}

	headTree, err := repo.TreeHash("HEAD")
	if err != nil {
		return false, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	remoteTree, err := repo.TreeHash(
		"refs/remotes/" + repo.RemoteName + "/" +
			snap.Branch,
	)
	if err != nil {
		return false, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return headTree != remoteTree, nil
}

// negotiatePush runs the two-step push state machine:
// safe push first, forced push only on a fast-forward
// rejection and only with operator authorization.
func negotiatePush(
	repo *git.Repo,
	cfg Config,
	folder Folder,
	outcome Outcome,
) Outcome {
	err := repo.Push(folder.Name)
	if err == nil {
		outcome.Status = StatusPushedFastForward

		return outcome
	}

	if !errors.Is(err, git.ErrNonFastForward) {
		outcome.Status = StatusFailed
		outcome.Reason = err.Error()

		return outcome
	}

	if !cfg.Force {
		outcome.Status = StatusNeedsForce
		outcome.Reason = "remote branch has " +
			"diverging history; rerun with --force " +
			"to overwrite it"

		return outcome
	}

	if err := repo.ForcePush(folder.Name); err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = err.Error()

		return outcome
	}

	outcome.Status = StatusPushedForced

	return outcome
}

// requestPR opens a pull request for a pushed custom
// folder. An existing PR is success; a creation error
// keeps the pushed status but marks the PR failed.
func requestPR(
	ctx context.Context,
	cfg Config,
	folder Folder,
	outcome Outcome,
) Outcome {
	body, err := resolveDescription(cfg, folder)
	if err != nil {
		outcome.PR = git.PRStateFailed
		outcome.Reason = err.Error()

		return outcome
	}

	title := folder.PRTitle
	if title == "" {
		title = folder.Name
	}

	state, err := cfg.Provider.CreatePR(
		ctx,
		folder.Name,
		cfg.MainFolder,
		title,
		body,
	)
	if err != nil {
		outcome.PR = git.PRStateFailed
		outcome.Reason = err.Error()

		return outcome
	}

	outcome.PR = state

	return outcome
}

// pushed reports whether a status represents content
// that reached the remote.
func pushed(s Status) bool {
	return s == StatusPushedFastForward ||
		s == StatusPushedForced
}
