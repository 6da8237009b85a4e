// Package strategy decides how the history of a branch
// about to receive a folder's content should be created.
// The decision is a pure function of the folder's role
// and the existence of remote branches, so it can be
// tested without a repository or network access.
package strategy

import "fmt"

// Kind enumerates the possible branch base selections.
type Kind int

const (
	// Orphan creates the branch with no parent
	// commit (independent, minimal history). Used for
	// the template folder.
	Orphan Kind = iota

	// RemoteBranch bases the branch on the tip of its
	// own existing remote branch, preserving prior
	// history so incremental updates fast-forward.
	RemoteBranch

	// RemoteMain bases the branch on the tip of the
	// remote main branch. Used for custom folders
	// whose branch does not exist yet.
	RemoteMain

	// Unresolvable marks a folder whose branch cannot
	// be created: no remote branch and no remote main
	// to base it on.
	Unresolvable
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case Orphan:
		return "orphan"
	case RemoteBranch:
		return "remote-branch"
	case RemoteMain:
		return "remote-main"
	case Unresolvable:
		return "unresolvable"
	default:
		return "unknown"
	}
}

// Target is a resolved branch destination: the branch
// name, how its base commit is chosen, and the base ref
// to check out from (empty for orphan branches).
type Target struct {
	// Branch is the destination branch name.
	Branch string

	// Kind is the base selection.
	Kind Kind

	// BaseRef is the remote-tracking ref the branch is
	// created from. Empty when Kind is Orphan or
	// Unresolvable.
	BaseRef string

	// Reason explains an Unresolvable target.
	Reason string
}

// Resolve picks the branch base for a folder. The
// template folder always gets an orphan branch. A custom
// folder is based on its own remote branch when one
// exists, otherwise on remote main. When neither exists
// the target is Unresolvable: the remote main branch
// must be pushed before supplemental pushes can work.
func Resolve(
	branch string,
	isTemplate bool,
	branchExists bool,
	mainBranch string,
	mainExists bool,
) Target {
	if isTemplate {
		return Target{
			Branch: branch,
			Kind:   Orphan,
		}
	}

	if branchExists {
		return Target{
			Branch:  branch,
			Kind:    RemoteBranch,
			BaseRef: "origin/" + branch,
		}
	}

	if mainExists {
		return Target{
			Branch:  branch,
			Kind:    RemoteMain,
			BaseRef: "origin/" + mainBranch,
		}
	}

	return Target{
		Branch: branch,
		Kind:   Unresolvable,
		Reason: fmt.Sprintf(
			"remote %s branch does not exist; "+
				"push the template folder first",
			mainBranch,
		),
	}
}
