package git

import "context"

// Pattern: Strategy -- swap git platform without
// changing PR creation logic.

// PRState describes the outcome of a pull request for a
// pushed branch.
type PRState string

const (
	// PRStateNotApplicable marks folders that never
	// get a pull request (the template folder, or runs
	// without PR creation).
	PRStateNotApplicable PRState = ""

	// PRStateCreated means a new pull request was
	// opened.
	PRStateCreated PRState = "created"

	// PRStateAlreadyExists means a pull request for
	// the branch already existed and was reused.
	PRStateAlreadyExists PRState = "already-exists"

	// PRStateSkippedNoDescription means the configured
	// description file was absent or blank.
	PRStateSkippedNoDescription PRState = "skipped-missing-description"

	// PRStateFailed means PR creation errored.
	PRStateFailed PRState = "failed"
)

// GitProvider creates pull requests on a git hosting
// platform. Implementations report whether the PR was
// newly created or already existed; both are success.
type GitProvider interface {
	CreatePR(
		ctx context.Context,
		from string,
		to string,
		title string,
		body string,
	) (PRState, error)
}

// GitProviderFunc adapts a plain function to the
// GitProvider interface. When body is empty the title
// is used as body.
type GitProviderFunc func(
	ctx context.Context,
	from string,
	to string,
	title string,
	body string,
) (PRState, error)

// CreatePR delegates to the wrapped function. If body
// is empty, title is substituted.
func (f GitProviderFunc) CreatePR(
	ctx context.Context,
	from string,
	to string,
	title string,
	body string,
) (PRState, error) {
	if body == "" {
		body = title
	}

	return f(ctx, from, to, title, body)
}
