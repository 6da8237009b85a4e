package pusher

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Folder is one unit of content to publish: the template
// folder or a custom variant folder. Read-only during
// the push.
type Folder struct {
	// Name is the folder (and branch) name.
	Name string

	// Path is the folder's filesystem location.
	Path string

	// IsTemplate marks the template folder, which is
	// pushed as an orphan branch and never gets a PR.
	IsTemplate bool

	// PRTitle optionally overrides the PR title
	// (defaults to the folder name).
	PRTitle string

	// PRDescription optionally overrides the PR
	// description source for this folder.
	PRDescription string
}

// PROverride carries per-folder PR settings from the
// variants manifest.
type PROverride struct {
	Title       string
	Description string
}

// EnumerateFolders builds the ordered folder list for a
// run. An explicit restriction keeps its given order;
// otherwise the template folder (when present) comes
// first so a fresh remote gains its main branch before
// any branch is based on it. Folders without a backing
// directory are dropped with a warning.
func EnumerateFolders(cfg Config) []Folder {
	names := cfg.Only

	if len(names) == 0 {
		names = append(
			names, cfg.MainFolder,
		)

		for _, name := range cfg.CustomFolders {
			if name == cfg.MainFolder {
				continue
			}

			names = append(names, name)
		}
	}

	var folders []Folder

	for _, name := range names {
		path := filepath.Join(cfg.Root, name)

		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			slog.Warn(
				"skipping missing folder",
				"folder", name,
			)

			continue
		}

		f := Folder{
			Name:       name,
			Path:       path,
			IsTemplate: name == cfg.MainFolder,
		}

		if ov, ok := cfg.Overrides[name]; ok {
			f.PRTitle = ov.Title
			f.PRDescription = ov.Description
		}

		folders = append(folders, f)
	}

	return folders
}
