// Package fileset resolves the list of files a folder
// contributes to its branch. Filtering precedence is
// .gitignore rules first, then the configured exclude
// list, then "everything except the version-control
// metadata directory". The resolved list is ordered and
// deterministic so identical folder content always
// produces an identical snapshot.
package fileset

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// gitDir is the version-control metadata directory that
// is never part of a snapshot.
const gitDir = ".git"

// File is one resolved file: its path relative to the
// folder root (always forward-slashed) and its absolute
// source path.
type File struct {
	// Rel is the slash-separated path relative to the
	// folder root.
	Rel string

	// Path is the absolute source path.
	Path string
}

// Resolve walks dir and returns its filtered file list
// in lexical order. When dir contains a .gitignore its
// rules are authoritative and the exclude list is not
// consulted; without one the exclude list applies; with
// neither, only the .git directory is dropped.
func Resolve(
	dir string,
	excludes []string,
) ([]File, error) {
	const errCtx = "resolving file set"

	matcher, err := loadGitignore(dir)
	if err != nil {
		// An unreadable .gitignore falls back to the
		// exclude list, mirroring its optional role.
		slog.Warn(
			"ignoring unreadable .gitignore",
			"dir", dir,
			"error", err,
		)

		matcher = nil
	}

	excluded := make(
		map[string]struct{}, len(excludes),
	)
	for _, name := range excludes {
		excluded[name] = struct{}{}
	}

	switch {
	case matcher != nil:
		slog.Debug(
			"filtering with .gitignore rules",
			"dir", dir,
		)
	case len(excluded) > 0:
		slog.Debug(
			"filtering with exclude list",
			"dir", dir,
			"count", len(excluded),
		)
	default:
		slog.Debug(
			"no filter configured, only .git excluded",
			"dir", dir,
		)
	}

	var files []File

	walkErr := filepath.WalkDir(
		dir,
		func(
			path string,
			d fs.DirEntry,
			err error,
		) error {
			if err != nil {
				return err
			}

			if path == dir {
				return nil
			}

			rel, relErr := filepath.Rel(dir, path)
			if relErr != nil {
				return relErr
			}

			rel = filepath.ToSlash(rel)

			if d.IsDir() && d.Name() == gitDir {
				return filepath.SkipDir
			}

			if skip(
				rel, d, matcher, excluded,
			) {
				if d.IsDir() {
					return filepath.SkipDir
				}

				return nil
			}

			if !d.IsDir() {
				files = append(files, File{
					Rel:  rel,
					Path: path,
				})
			}

			return nil
		},
	)
	if walkErr != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, walkErr,
		)
	}

	return files, nil
}

// skip applies the filtering precedence to a single
// entry. With a gitignore matcher the exclude list is
// not consulted.
func skip(
	rel string,
	d fs.DirEntry,
	matcher gitignore.Matcher,
	excluded map[string]struct{},
) bool {
	if matcher != nil {
		return matcher.Match(
			strings.Split(rel, "/"), d.IsDir(),
		)
	}

	_, ok := excluded[d.Name()]

	return ok
}

// loadGitignore parses dir/.gitignore into a matcher.
// Returns a nil matcher when the file does not exist.
func loadGitignore(
	dir string,
) (gitignore.Matcher, error) {
	const errCtx = "loading .gitignore"

	path := filepath.Join(dir, ".gitignore")

	fh, err := os.Open(path) //nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}
	defer fh.Close() //nolint:errcheck

	var patterns []gitignore.Pattern

	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		patterns = append(
			patterns,
			gitignore.ParsePattern(line, nil),
		)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	if len(patterns) == 0 {
		return nil, nil
	}

	return gitignore.NewMatcher(patterns), nil
}

// Materialize copies the resolved files into dstDir,
// creating parent directories as needed. File
// permissions are carried over from the source.
func Materialize(files []File, dstDir string) error {
	const errCtx = "materializing file set"

	for _, f := range files {
		dst := filepath.Join(
			dstDir, filepath.FromSlash(f.Rel),
		)

		if err := os.MkdirAll(
			filepath.Dir(dst), 0o750,
		); err != nil {
			return fmt.Errorf(
				"%s: mkdir for %s: %w",
				errCtx, f.Rel, err,
			)
		}

		if err := copyFile(f.Path, dst); err != nil {
			return fmt.Errorf(
				"%s: copy %s: %w",
				errCtx, f.Rel, err,
			)
		}
	}

	return nil
}

// copyFile copies src to dst preserving the source
// permission bits.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src) //nolint:gosec
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	//nolint:gosec // destination is run-owned
	out, err := os.OpenFile(
		dst,
		os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
		info.Mode().Perm(),
	)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck,gosec

		return err
	}

	return out.Close()
}
