// Package git provides the scratch-repository operations used to turn
// folder content into branches, and a strategy interface for creating
// pull requests across different git hosting platforms.
//
// Repo wraps a local work repository with methods for branching
// (orphan or based on a remote ref), snapshot commits, tree-hash
// comparison, and safe versus forced pushes. A push rejected because
// the remote tip diverged is surfaced as ErrNonFastForward rather
// than a plain failure, so callers can treat "needs force" as a
// first-class outcome.
//
// The GitProvider interface abstracts PR creation. Implementations
// exist for GitHub and GitLab in sub-packages. GitProviderFunc is a
// convenience adapter that lets plain functions satisfy the
// interface.
package git
