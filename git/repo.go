package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/byte4ever/bugbash/exec"
)

// ErrNonFastForward reports that the remote rejected a
// push because the new tip does not descend from the
// current remote tip. It is not a failure: the caller
// decides whether a forced push is authorized.
var ErrNonFastForward = errors.New(
	"push rejected: non-fast-forward",
)

// initialBranch is the scratch branch a fresh work
// repository starts on. The slash keeps it from ever
// colliding with a folder branch name.
const initialBranch = "bugbash/init"

// Repo is a scratch git repository used to assemble and
// push folder snapshots. Create with Init, and call
// Clean when done.
type Repo struct {
	// Dir is the filesystem location of the work
	// repository.
	Dir string
	// RemoteName is the name of the upstream remote.
	RemoteName string
}

// Init creates an empty work repository in dir wired to
// the given remote URL. The repository starts on a
// scratch branch; folder branches are created per push
// via CheckoutOrphan or CheckoutFrom.
//
//nolint:gosec // file paths originate from CLI flags
func Init(dir string, remoteURL string) (*Repo, error) {
	const errCtx = "initializing work repository"

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf(
			"%s: create dir: %w", errCtx, err,
		)
	}

	remoteName := "origin"

	if _, err := exec.Ex(
		dir, "git",
		"init",
		"--initial-branch", initialBranch,
	); err != nil {
		return nil, fmt.Errorf(
			"%s: git init: %w", errCtx, err,
		)
	}

	if _, err := exec.Ex(
		dir, "git",
		"remote", "add", remoteName, remoteURL,
	); err != nil {
		return nil, fmt.Errorf(
			"%s: add remote: %w", errCtx, err,
		)
	}

	ensureIdentity(dir)

	return &Repo{
		Dir:        dir,
		RemoteName: remoteName,
	}, nil
}

// ensureIdentity sets a local commit identity when none
// is configured, so snapshot commits work on hosts
// without a global git config.
func ensureIdentity(dir string) {
	out, err := exec.Ex(
		dir, "git", "config", "user.email",
	)
	if err == nil && strings.TrimSpace(out) != "" {
		return
	}

	exec.MustEx(
		dir, "git",
		"config", "user.email", "bugbash@localhost",
	)
	exec.MustEx(
		dir, "git",
		"config", "user.name", "bugbash",
	)
}

// Clean removes the work repository directory.
func (r *Repo) Clean() error {
	const errCtx = "cleaning work repository"

	if err := os.RemoveAll(r.Dir); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Fetch updates all remote-tracking refs. An error is
// expected when the remote repository is still empty;
// callers treat it as "no remote branches yet".
func (r *Repo) Fetch() error {
	const errCtx = "fetching remote refs"

	if _, err := exec.Ex(
		r.Dir, "git",
		"fetch", r.RemoteName,
		"--prune", "--no-tags",
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// RemoteTip returns the commit hash of the
// remote-tracking ref for branch, and whether it
// exists. Resolution is purely local; call Fetch first.
func (r *Repo) RemoteTip(branch string) (string, bool) {
	out, err := exec.Ex(
		r.Dir, "git",
		"rev-parse", "--verify", "--quiet",
		"refs/remotes/"+r.RemoteName+"/"+branch,
	)
	if err != nil {
		return "", false
	}

	tip := strings.TrimSpace(out)
	if tip == "" {
		return "", false
	}

	return tip, true
}

// CheckoutOrphan switches to a new branch with no
// parent commit. The previous branch's files stay in
// the index until ClearWorktree.
func (r *Repo) CheckoutOrphan(branch string) error {
	const errCtx = "creating orphan branch"

	if _, err := exec.Ex(
		r.Dir, "git",
		"checkout", "--orphan", branch,
	); err != nil {
		return fmt.Errorf(
			"%s %s: %w", errCtx, branch, err,
		)
	}

	return nil
}

// CheckoutFrom creates branch at baseRef and switches
// to it.
func (r *Repo) CheckoutFrom(
	branch string,
	baseRef string,
) error {
	const errCtx = "creating branch"

	if _, err := exec.Ex(
		r.Dir, "git",
		"checkout", "-b", branch, baseRef,
	); err != nil {
		return fmt.Errorf(
			"%s %s from %s: %w",
			errCtx, branch, baseRef, err,
		)
	}

	return nil
}

// ClearWorktree removes every tracked and untracked
// entry except the .git directory, leaving an empty
// tree ready for a fresh snapshot.
func (r *Repo) ClearWorktree() error {
	const errCtx = "clearing worktree"

	if _, err := exec.Ex(
		r.Dir, "git",
		"rm", "-rf", "-q", "--ignore-unmatch", ".",
	); err != nil {
		return fmt.Errorf(
			"%s: unstage: %w", errCtx, err,
		)
	}

	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return fmt.Errorf(
			"%s: read dir: %w", errCtx, err,
		)
	}

	for _, e := range entries {
		if e.Name() == ".git" {
			continue
		}

		if err := os.RemoveAll(
			filepath.Join(r.Dir, e.Name()),
		); err != nil {
			return fmt.Errorf(
				"%s: remove %s: %w",
				errCtx, e.Name(), err,
			)
		}
	}

	return nil
}

// CommitAll stages everything and commits with the
// given message. Returns false without committing when
// the tree is identical to the branch tip.
func (r *Repo) CommitAll(
	message string,
) (bool, error) {
	const errCtx = "committing snapshot"

	if _, err := exec.Ex(
		r.Dir, "git", "add", "-A",
	); err != nil {
		return false, fmt.Errorf(
			"%s: stage: %w", errCtx, err,
		)
	}

	if r.IsClean() {
		return false, nil
	}

	if _, err := exec.Ex(
		r.Dir, "git", "commit", "-m", message,
	); err != nil {
		return false, fmt.Errorf(
			"%s: commit: %w", errCtx, err,
		)
	}

	return true, nil
}

// IsClean reports whether the working tree and index
// have no uncommitted changes.
func (r *Repo) IsClean() bool {
	out, err := exec.Ex(
		r.Dir, "git", "status", "--porcelain",
	)
	if err != nil {
		return false
	}

	return strings.TrimSpace(out) == ""
}

// TreeHash resolves the tree object hash of ref.
// Comparing tree hashes detects content-identical
// commits regardless of their history.
func (r *Repo) TreeHash(ref string) (string, error) {
	const errCtx = "resolving tree hash"

	out, err := exec.Ex(
		r.Dir, "git",
		"rev-parse", ref+"^{tree}",
	)
	if err != nil {
		return "", fmt.Errorf(
			"%s for %s: %w", errCtx, ref, err,
		)
	}

	return strings.TrimSpace(out), nil
}

// Push pushes branch to the remote without force and
// sets its upstream. A rejection caused by diverging
// remote history is returned as ErrNonFastForward.
func (r *Repo) Push(branch string) error {
	const errCtx = "pushing branch"

	out, err := exec.Ex(
		r.Dir, "git",
		"push", "-u", r.RemoteName, branch,
	)
	if err != nil {
		if isNonFastForward(out) {
			return fmt.Errorf(
				"%s %s: %w",
				errCtx, branch, ErrNonFastForward,
			)
		}

		return fmt.Errorf(
			"%s %s: %w", errCtx, branch, err,
		)
	}

	return nil
}

// ForcePush replaces the remote branch tip with the
// local one, rewriting remote history. Callers must
// hold explicit operator authorization.
func (r *Repo) ForcePush(branch string) error {
	const errCtx = "force-pushing branch"

	if _, err := exec.Ex(
		r.Dir, "git",
		"push", "-u", "--force",
		r.RemoteName, branch,
	); err != nil {
		return fmt.Errorf(
			"%s %s: %w", errCtx, branch, err,
		)
	}

	return nil
}

// isNonFastForward classifies git push output as a
// fast-forward rejection.
func isNonFastForward(out string) bool {
	return strings.Contains(out, "non-fast-forward") ||
		strings.Contains(out, "[rejected]") ||
		strings.Contains(out, "fetch first")
}
