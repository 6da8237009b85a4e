package pusher

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/byte4ever/bugbash/fileset"
	"github.com/byte4ever/bugbash/git"
	"github.com/byte4ever/bugbash/strategy"
)

// templateCommitMessage is the fixed commit message for
// template folder snapshots. Custom folders use their
// folder name.
const templateCommitMessage = "input data"

// snapshot is a folder's content committed onto its
// local branch. NoDiff marks a snapshot whose tree is
// identical to the branch base, letting the change
// detector short-circuit.
type snapshot struct {
	Branch string
	NoDiff bool
}

// commitMessage returns the snapshot commit message for
// a folder.
func commitMessage(folder Folder) string {
	if folder.IsTemplate {
		return templateCommitMessage
	}

	return folder.Name
}

// takeSnapshot materializes the branch at the resolved
// base, replaces the tracked content with the folder's
// filtered file set, and commits. An empty folder still
// yields a commit via a .gitkeep placeholder.
func takeSnapshot(
	repo *git.Repo,
	cfg Config,
	folder Folder,
	target strategy.Target,
) (snapshot, error) {
	const errCtx = "taking folder snapshot"

	snap := snapshot{Branch: target.Branch}

	switch target.Kind {
	case strategy.Orphan:
		if err := repo.CheckoutOrphan(
			target.Branch,
		); err != nil {
			return snap, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}
	case strategy.RemoteBranch, strategy.RemoteMain:
		if err := repo.CheckoutFrom(
			target.Branch, target.BaseRef,
		); err != nil {
			return snap, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}
	case strategy.Unresolvable:
		return snap, fmt.Errorf(
			"%s: %s", errCtx, target.Reason,
		)
	}

	if err := repo.ClearWorktree(); err != nil {
		return snap, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	files, err := fileset.Resolve(
		folder.Path, cfg.ExcludeNames,
	)
	if err != nil {
		return snap, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	if err := fileset.Materialize(
		files, repo.Dir,
	); err != nil {
		return snap, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	if len(files) == 0 {
		// Git cannot commit an empty tree; keep the
		// branch pushable.
		keep := filepath.Join(repo.Dir, ".gitkeep")

		//nolint:gosec // placeholder file
		if err := os.WriteFile(
			keep, nil, 0o644,
		); err != nil {
			return snap, fmt.Errorf(
				"%s: write placeholder: %w",
				errCtx, err,
			)
		}
	}

	committed, err := repo.CommitAll(
		commitMessage(folder),
	)
	if err != nil {
		return snap, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	snap.NoDiff = !committed

	return snap, nil
}
