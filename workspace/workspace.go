// Package workspace manages the local variant folders:
// creating the expected layout and syncing the template
// folder's content into the variant folders.
package workspace

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	cp "github.com/otiai10/copy"
)

// Create ensures the template folder and every custom
// folder exist under root. Existing folders are left
// untouched. Names colliding with the template folder
// are skipped. It returns the custom folder names that
// were ensured.
func Create(
	root string,
	mainFolder string,
	customFolders []string,
) ([]string, error) {
	const errCtx = "creating workspace folders"

	err := os.MkdirAll(
		filepath.Join(root, mainFolder), 0o750,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	var ensured []string

	for _, name := range customFolders {
		if strings.TrimSpace(name) == "" {
			continue
		}

		if name == mainFolder {
			continue
		}

		err := os.MkdirAll(
			filepath.Join(root, name), 0o750,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %s: %w", errCtx, name, err,
			)
		}

		ensured = append(ensured, name)
	}

	return ensured, nil
}

// SyncOptions configures a template sync run.
type SyncOptions struct {
	// Root is the workspace root directory.
	Root string

	// MainFolder is the template folder name.
	MainFolder string

	// CustomFolders is the configured variant list,
	// used when Targets is empty.
	CustomFolders []string

	// Targets restricts the sync to the named
	// folders.
	Targets []string

	// ExcludeNames are file and directory names
	// never copied, at any depth.
	ExcludeNames []string

	// DryRun logs the planned copies without
	// touching the targets.
	DryRun bool
}

// Sync copies the template folder's content into each
// target folder. Existing files are overwritten; files
// only present in a target are kept. Excluded names and
// dot-directories are never copied. It returns the
// target folder names that were synced.
func Sync(opts SyncOptions) ([]string, error) {
	const errCtx = "syncing template folder"

	mainDir := filepath.Join(
		opts.Root, opts.MainFolder,
	)

	info, err := os.Stat(mainDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf(
			"%s: template folder not found: %s",
			errCtx, mainDir,
		)
	}

	targets := opts.Targets
	if len(targets) == 0 {
		targets = opts.CustomFolders
	}

	excluded := make(
		map[string]struct{}, len(opts.ExcludeNames),
	)
	for _, name := range opts.ExcludeNames {
		excluded[name] = struct{}{}
	}

	var synced []string

	for _, name := range targets {
		if strings.TrimSpace(name) == "" ||
			name == opts.MainFolder {
			continue
		}

		dstDir := filepath.Join(opts.Root, name)

		info, err := os.Stat(dstDir)
		if err != nil || !info.IsDir() {
			slog.Warn(
				"skipping missing sync target",
				"folder", name,
			)

			continue
		}

		if opts.DryRun {
			err = planCopies(mainDir, name, excluded)
		} else {
			err = copyInto(mainDir, dstDir, excluded)
		}

		if err != nil {
			return nil, fmt.Errorf(
				"%s: %s: %w", errCtx, name, err,
			)
		}

		synced = append(synced, name)
	}

	return synced, nil
}

// skippable reports whether an entry must not be
// copied: excluded names at any depth, and
// dot-directories.
func skippable(
	base string,
	isDir bool,
	excluded map[string]struct{},
) bool {
	if _, ok := excluded[base]; ok {
		return true
	}

	return isDir && strings.HasPrefix(base, ".")
}

// copyInto merges the template tree into dstDir,
// overwriting existing files.
func copyInto(
	srcDir string,
	dstDir string,
	excluded map[string]struct{},
) error {
	return cp.Copy(srcDir, dstDir, cp.Options{
		OnDirExists: func(
			_ string, _ string,
		) cp.DirExistsAction {
			return cp.Merge
		},
		Skip: func(
			srcinfo os.FileInfo,
			src string,
			_ string,
		) (bool, error) {
			return skippable(
				filepath.Base(src),
				srcinfo.IsDir(),
				excluded,
			), nil
		},
	})
}

// planCopies logs the files a real sync would copy into
// the target.
func planCopies(
	srcDir string,
	target string,
	excluded map[string]struct{},
) error {
	return filepath.WalkDir(
		srcDir,
		func(
			path string,
			d fs.DirEntry,
			err error,
		) error {
			if err != nil {
				return err
			}

			if path == srcDir {
				return nil
			}

			if skippable(
				d.Name(), d.IsDir(), excluded,
			) {
				if d.IsDir() {
					return filepath.SkipDir
				}

				return nil
			}

			if d.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(srcDir, path)
			if err != nil {
				return err
			}

			slog.Info(
				"would copy",
				"file", filepath.ToSlash(rel),
				"target", target,
			)

			return nil
		},
	)
}
