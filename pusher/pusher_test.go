package pusher_test

import (
	"context"
	"os"
	oe "os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/bugbash/git"
	"github.com/byte4ever/bugbash/pusher"
)

// testConfig returns a run config wired to a fresh bare
// remote and a workspace root.
func testConfig(
	tb testing.TB,
	root string,
	remote string,
	custom ...string,
) pusher.Config {
	tb.Helper()

	return pusher.Config{
		Root:          root,
		RepoURL:       remote,
		MainFolder:    "main",
		CustomFolders: custom,
		TmpDir:        tb.TempDir(),
	}
}

// makeFolder creates a workspace folder with the given
// files. Custom folders get their required txt file
// automatically unless files already contains it.
func makeFolder(
	tb testing.TB,
	root string,
	name string,
	files map[string]string,
) {
	tb.Helper()

	dir := filepath.Join(root, name)

	err := os.MkdirAll(dir, 0o750)
	require.NoError(tb, err)

	for rel, content := range files {
		path := filepath.Join(
			dir, filepath.FromSlash(rel),
		)

		err := os.MkdirAll(
			filepath.Dir(path), 0o750,
		)
		require.NoError(tb, err)

		//nolint:gosec // test file
		err = os.WriteFile(
			path, []byte(content), 0o600,
		)
		require.NoError(tb, err)
	}
}

// makeCustomFolder creates a valid custom folder with
// its required txt file plus extra files.
func makeCustomFolder(
	tb testing.TB,
	root string,
	name string,
	files map[string]string,
) {
	tb.Helper()

	all := map[string]string{
		name + ".txt": "prompt for " + name + "\n",
	}
	for rel, content := range files {
		all[rel] = content
	}

	makeFolder(tb, root, name, all)
}

// initBareRemote creates a bare repository acting as
// the remote.
func initBareRemote(tb testing.TB) string {
	tb.Helper()

	dir := filepath.Join(tb.TempDir(), "remote.git")

	gitOut(tb, "", "init", "--bare", dir)

	return dir
}

// remoteBranches lists the branch names present on the
// bare remote.
func remoteBranches(
	tb testing.TB,
	remote string,
) []string {
	tb.Helper()

	out := gitOut(
		tb, remote,
		"for-each-ref",
		"--format=%(refname:short)",
		"refs/heads",
	)

	var branches []string

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			branches = append(branches, line)
		}
	}

	return branches
}

// outcomeFor finds the outcome recorded for a folder.
func outcomeFor(
	tb testing.TB,
	s *pusher.Summary,
	folder string,
) pusher.Outcome {
	tb.Helper()

	for _, o := range s.Outcomes {
		if o.Folder == folder {
			return o
		}
	}

	tb.Fatalf("no outcome for folder %q", folder)

	return pusher.Outcome{}
}

// gitOut runs a git command and returns its output.
func gitOut(
	tb testing.TB,
	dir string,
	args ...string,
) string {
	tb.Helper()

	//nolint:gosec // test helper
	cmd := oe.CommandContext(
		context.Background(), "git", args...,
	)
	if dir != "" {
		cmd.Dir = dir
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		tb.Fatalf(
			"git %v failed: %s: %v",
			args, string(out), err,
		)
	}

	return string(out)
}

func TestRun_first_push(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	makeFolder(t, root, "main", map[string]string{
		"data.txt": "template\n",
	})
	makeCustomFolder(t, root, "alpha", map[string]string{
		"notes.md": "alpha notes\n",
	})

	cfg := testConfig(t, root, remote, "alpha")

	summary, err := pusher.Run(
		context.Background(), cfg,
	)
	require.NoError(t, err)

	assert.True(t, summary.OK())
	assert.Equal(t, 2, summary.Pushed)

	mainOut := outcomeFor(t, summary, "main")
	assert.Equal(
		t,
		pusher.StatusPushedFastForward,
		mainOut.Status,
	)

	alphaOut := outcomeFor(t, summary, "alpha")
	assert.Equal(
		t,
		pusher.StatusPushedFastForward,
		alphaOut.Status,
	)

	branches := remoteBranches(t, remote)
	assert.ElementsMatch(
		t, []string{"main", "alpha"}, branches,
	)
}

func TestRun_idempotent_second_run(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	makeFolder(t, root, "main", map[string]string{
		"data.txt": "template\n",
	})
	makeCustomFolder(t, root, "alpha", nil)

	cfg := testConfig(t, root, remote, "alpha")

	_, err := pusher.Run(context.Background(), cfg)
	require.NoError(t, err)

	// Rerunning without content changes must be a
	// quiet no-op: no pushes, no new commits.
	summary, err := pusher.Run(
		context.Background(), cfg,
	)
	require.NoError(t, err)

	assert.True(t, summary.OK())
	assert.Equal(t, 0, summary.Pushed)
	assert.Equal(t, 2, summary.Skipped)

	for _, o := range summary.Outcomes {
		assert.Equal(
			t,
			pusher.StatusSkippedNoChange,
			o.Status,
		)
	}

	// Each branch still has exactly one commit.
	count := strings.TrimSpace(gitOut(
		t, remote,
		"rev-list", "--count", "alpha",
	))
	assert.Equal(t, "2", count)
}

func TestRun_custom_branch_bases_on_remote_main(
	t *testing.T,
) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	makeFolder(t, root, "main", map[string]string{
		"data.txt": "template\n",
	})

	cfg := testConfig(t, root, remote)

	_, err := pusher.Run(context.Background(), cfg)
	require.NoError(t, err)

	// A later run adds a custom folder; its branch
	// must include remote main's history so a PR can
	// be opened against it.
	makeCustomFolder(t, root, "alpha", nil)
	cfg.CustomFolders = []string{"alpha"}

	summary, err := pusher.Run(
		context.Background(), cfg,
	)
	require.NoError(t, err)

	alphaOut := outcomeFor(t, summary, "alpha")
	assert.Equal(
		t,
		pusher.StatusPushedFastForward,
		alphaOut.Status,
	)

	mainTip := strings.TrimSpace(gitOut(
		t, remote, "rev-parse", "main",
	))
	base := strings.TrimSpace(gitOut(
		t, remote,
		"merge-base", "main", "alpha",
	))
	assert.Equal(t, mainTip, base)
}

func TestRun_incremental_update_fast_forwards(
	t *testing.T,
) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	makeFolder(t, root, "main", map[string]string{
		"data.txt": "template\n",
	})
	makeCustomFolder(t, root, "alpha", map[string]string{
		"notes.md": "v1\n",
	})

	cfg := testConfig(t, root, remote, "alpha")

	_, err := pusher.Run(context.Background(), cfg)
	require.NoError(t, err)

	// Updating the custom folder bases the new commit
	// on the existing remote branch: never a forced
	// push.
	makeCustomFolder(t, root, "alpha", map[string]string{
		"notes.md": "v2\n",
	})

	summary, err := pusher.Run(
		context.Background(), cfg,
	)
	require.NoError(t, err)

	alphaOut := outcomeFor(t, summary, "alpha")
	assert.Equal(
		t,
		pusher.StatusPushedFastForward,
		alphaOut.Status,
	)

	count := strings.TrimSpace(gitOut(
		t, remote,
		"rev-list", "--count", "alpha",
	))
	assert.Equal(t, "3", count)
}

func TestRun_template_change_needs_force(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	makeFolder(t, root, "main", map[string]string{
		"data.txt": "v1\n",
	})

	cfg := testConfig(t, root, remote)

	_, err := pusher.Run(context.Background(), cfg)
	require.NoError(t, err)

	// The template branch is an orphan each run, so a
	// content change always diverges from the remote.
	makeFolder(t, root, "main", map[string]string{
		"data.txt": "v2\n",
	})

	summary, err := pusher.Run(
		context.Background(), cfg,
	)
	require.NoError(t, err)

	mainOut := outcomeFor(t, summary, "main")
	assert.Equal(
		t, pusher.StatusNeedsForce, mainOut.Status,
	)
	assert.Contains(t, mainOut.Reason, "--force")
	assert.False(t, summary.OK())

	// The remote is untouched without authorization.
	content := gitOut(
		t, remote,
		"show", "main:data.txt",
	)
	assert.Equal(t, "v1\n", content)

	// Explicit authorization replaces the remote tip.
	cfg.Force = true

	summary, err = pusher.Run(
		context.Background(), cfg,
	)
	require.NoError(t, err)

	mainOut = outcomeFor(t, summary, "main")
	assert.Equal(
		t, pusher.StatusPushedForced, mainOut.Status,
	)
	assert.True(t, summary.OK())

	content = gitOut(
		t, remote,
		"show", "main:data.txt",
	)
	assert.Equal(t, "v2\n", content)
}

func TestRun_missing_required_file_skips(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	makeFolder(t, root, "main", map[string]string{
		"data.txt": "template\n",
	})
	// alpha lacks alpha.txt entirely.
	makeFolder(t, root, "alpha", map[string]string{
		"notes.md": "alpha\n",
	})
	makeCustomFolder(t, root, "beta", nil)

	cfg := testConfig(
		t, root, remote, "alpha", "beta",
	)

	summary, err := pusher.Run(
		context.Background(), cfg,
	)
	require.NoError(t, err)

	alphaOut := outcomeFor(t, summary, "alpha")
	assert.Equal(
		t,
		pusher.StatusSkippedMissingFile,
		alphaOut.Status,
	)
	assert.Contains(t, alphaOut.Reason, "alpha.txt")

	// Other folders are unaffected.
	betaOut := outcomeFor(t, summary, "beta")
	assert.Equal(
		t,
		pusher.StatusPushedFastForward,
		betaOut.Status,
	)

	assert.True(t, summary.OK())
	assert.NotContains(
		t, remoteBranches(t, remote), "alpha",
	)
}

func TestRun_missing_remote_main_is_per_folder(
	t *testing.T,
) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	makeCustomFolder(t, root, "alpha", nil)

	cfg := testConfig(t, root, remote, "alpha")
	cfg.Only = []string{"alpha"}

	summary, err := pusher.Run(
		context.Background(), cfg,
	)
	require.NoError(t, err)

	alphaOut := outcomeFor(t, summary, "alpha")
	assert.Equal(
		t, pusher.StatusFailed, alphaOut.Status,
	)
	assert.Contains(
		t, alphaOut.Reason, "template folder",
	)
	assert.False(t, summary.OK())
}

func TestRun_failure_isolation(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	makeFolder(t, root, "main", map[string]string{
		"data.txt": "template\n",
	})
	makeCustomFolder(t, root, "alpha", nil)
	// ".." makes the branch name invalid, so this
	// folder fails during snapshot.
	makeCustomFolder(t, root, "bad..name", nil)
	makeCustomFolder(t, root, "gamma", nil)

	cfg := testConfig(
		t, root, remote,
		"alpha", "bad..name", "gamma",
	)

	summary, err := pusher.Run(
		context.Background(), cfg,
	)
	require.NoError(t, err)

	assert.Equal(
		t,
		pusher.StatusPushedFastForward,
		outcomeFor(t, summary, "alpha").Status,
	)
	assert.Equal(
		t,
		pusher.StatusFailed,
		outcomeFor(t, summary, "bad..name").Status,
	)
	assert.Equal(
		t,
		pusher.StatusPushedFastForward,
		outcomeFor(t, summary, "gamma").Status,
	)

	assert.False(t, summary.OK())
	assert.Equal(t, 1, summary.Failed)
}

func TestRun_dry_run_has_no_side_effects(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	makeFolder(t, root, "main", map[string]string{
		"data.txt": "template\n",
	})
	makeCustomFolder(t, root, "alpha", nil)

	cfg := testConfig(t, root, remote, "alpha")
	cfg.DryRun = true

	summary, err := pusher.Run(
		context.Background(), cfg,
	)
	require.NoError(t, err)

	assert.True(t, summary.OK())
	assert.Equal(t, 2, summary.WouldPush)
	assert.Empty(t, remoteBranches(t, remote))
}

func TestRun_dry_run_still_detects_no_change(
	t *testing.T,
) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	makeFolder(t, root, "main", map[string]string{
		"data.txt": "template\n",
	})

	cfg := testConfig(t, root, remote)

	_, err := pusher.Run(context.Background(), cfg)
	require.NoError(t, err)

	cfg.DryRun = true

	summary, err := pusher.Run(
		context.Background(), cfg,
	)
	require.NoError(t, err)

	mainOut := outcomeFor(t, summary, "main")
	assert.Equal(
		t,
		pusher.StatusSkippedNoChange,
		mainOut.Status,
	)
}

func TestRun_empty_template_folder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	makeFolder(t, root, "main", nil)

	cfg := testConfig(t, root, remote)

	summary, err := pusher.Run(
		context.Background(), cfg,
	)
	require.NoError(t, err)

	mainOut := outcomeFor(t, summary, "main")
	assert.Equal(
		t,
		pusher.StatusPushedFastForward,
		mainOut.Status,
	)

	// The placeholder keeps the branch non-empty.
	out := gitOut(
		t, remote,
		"ls-tree", "--name-only", "main",
	)
	assert.Contains(t, out, ".gitkeep")
}

func TestRun_no_folders(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	cfg := testConfig(t, root, remote, "alpha")

	_, err := pusher.Run(context.Background(), cfg)
	assert.ErrorContains(t, err, "no folders")
}

func TestRun_create_pr_requires_provider(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	makeFolder(t, root, "main", nil)

	cfg := testConfig(t, root, remote)
	cfg.CreatePR = true

	_, err := pusher.Run(context.Background(), cfg)
	assert.ErrorContains(t, err, "provider")
}

func TestRun_creates_prs_for_custom_folders(
	t *testing.T,
) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	makeFolder(t, root, "main", map[string]string{
		"data.txt": "template\n",
	})
	makeCustomFolder(t, root, "alpha", map[string]string{
		"pr.md": "alpha description\n",
	})

	type prCall struct {
		from, to, title, body string
	}

	var calls []prCall

	cfg := testConfig(t, root, remote, "alpha")
	cfg.CreatePR = true
	cfg.PRDescriptionFile = "pr.md"
	cfg.Provider = git.GitProviderFunc(
		func(
			_ context.Context,
			from string,
			to string,
			title string,
			body string,
		) (git.PRState, error) {
			calls = append(calls, prCall{
				from:  from,
				to:    to,
				title: title,
				body:  body,
			})

			return git.PRStateCreated, nil
		},
	)

	summary, err := pusher.Run(
		context.Background(), cfg,
	)
	require.NoError(t, err)
	assert.True(t, summary.OK())

	// Only the custom folder gets a PR.
	require.Len(t, calls, 1)
	assert.Equal(t, "alpha", calls[0].from)
	assert.Equal(t, "main", calls[0].to)
	assert.Equal(t, "alpha", calls[0].title)
	assert.Equal(
		t, "alpha description", calls[0].body,
	)

	alphaOut := outcomeFor(t, summary, "alpha")
	assert.Equal(t, git.PRStateCreated, alphaOut.PR)

	mainOut := outcomeFor(t, summary, "main")
	assert.Equal(
		t, git.PRStateNotApplicable, mainOut.PR,
	)
}

func TestRun_missing_description_skips_before_push(
	t *testing.T,
) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	makeFolder(t, root, "main", map[string]string{
		"data.txt": "template\n",
	})
	// Required txt present, description file absent.
	makeCustomFolder(t, root, "alpha", nil)

	providerCalled := false

	cfg := testConfig(t, root, remote, "alpha")
	cfg.CreatePR = true
	cfg.PRDescriptionFile = "pr.md"
	cfg.Provider = git.GitProviderFunc(
		func(
			_ context.Context,
			_, _, _, _ string,
		) (git.PRState, error) {
			providerCalled = true

			return git.PRStateCreated, nil
		},
	)

	summary, err := pusher.Run(
		context.Background(), cfg,
	)
	require.NoError(t, err)

	alphaOut := outcomeFor(t, summary, "alpha")
	assert.Equal(
		t,
		pusher.StatusSkippedNoDescription,
		alphaOut.Status,
	)
	assert.Equal(
		t,
		git.PRStateSkippedNoDescription,
		alphaOut.PR,
	)

	// Skipped before any branch or network work.
	assert.False(t, providerCalled)
	assert.NotContains(
		t, remoteBranches(t, remote), "alpha",
	)
}

func TestRun_existing_pr_is_success(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	makeFolder(t, root, "main", map[string]string{
		"data.txt": "template\n",
	})
	makeCustomFolder(t, root, "alpha", nil)

	cfg := testConfig(t, root, remote, "alpha")
	cfg.CreatePR = true
	cfg.Provider = git.GitProviderFunc(
		func(
			_ context.Context,
			_, _, _, _ string,
		) (git.PRState, error) {
			return git.PRStateAlreadyExists, nil
		},
	)

	summary, err := pusher.Run(
		context.Background(), cfg,
	)
	require.NoError(t, err)

	assert.True(t, summary.OK())
	assert.Equal(
		t,
		git.PRStateAlreadyExists,
		outcomeFor(t, summary, "alpha").PR,
	)
}

func TestRun_pr_failure_fails_run(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	remote := initBareRemote(t)

	makeFolder(t, root, "main", map[string]string{
		"data.txt": "template\n",
	})
	makeCustomFolder(t, root, "alpha", nil)

	cfg := testConfig(t, root, remote, "alpha")
	cfg.CreatePR = true
	cfg.Provider = git.GitProviderFunc(
		func(
			_ context.Context,
			_, _, _, _ string,
		) (git.PRState, error) {
			return git.PRStateFailed,
				assert.AnError
		},
	)

	summary, err := pusher.Run(
		context.Background(), cfg,
	)
	require.NoError(t, err)

	alphaOut := outcomeFor(t, summary, "alpha")
	// The push itself succeeded.
	assert.Equal(
		t,
		pusher.StatusPushedFastForward,
		alphaOut.Status,
	)
	assert.Equal(t, git.PRStateFailed, alphaOut.PR)
	assert.False(t, summary.OK())
}
