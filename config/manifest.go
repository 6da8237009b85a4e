package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// ManifestFileName is the optional variants manifest
// read from the workspace root.
const ManifestFileName = "variants.yaml"

// Variant is one manifest entry: a custom folder with
// optional pull request overrides.
type Variant struct {
	Name        string `yaml:"name"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Manifest declares variant folders and their pull
// request settings. It supplements the CUSTOM_FOLDERS
// list; folders named in both places are configured by
// the manifest entry.
type Manifest struct {
	Variants []Variant `yaml:"variants"`
}

// LoadManifest reads root/variants.yaml. A missing file
// is not an error; it returns an empty manifest.
func LoadManifest(root string) (*Manifest, error) {
	const errCtx = "loading variants manifest"

	path := filepath.Join(root, ManifestFileName)

	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Manifest{}, nil
		}

		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	var m Manifest

	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	seen := make(map[string]struct{}, len(m.Variants))

	for _, variant := range m.Variants {
		if variant.Name == "" {
			return nil, fmt.Errorf(
				"%s: variant with empty name",
				errCtx,
			)
		}

		if _, dup := seen[variant.Name]; dup {
			return nil, fmt.Errorf(
				"%s: duplicate variant %q",
				errCtx, variant.Name,
			)
		}

		seen[variant.Name] = struct{}{}
	}

	return &m, nil
}

// Names returns the variant folder names in manifest
// order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Variants))

	for _, variant := range m.Variants {
		names = append(names, variant.Name)
	}

	return names
}

// MergeFolders appends manifest variants missing from
// the configured folder list, preserving order.
func (m *Manifest) MergeFolders(
	folders []string,
) []string {
	present := make(
		map[string]struct{}, len(folders),
	)
	for _, name := range folders {
		present[name] = struct{}{}
	}

	merged := folders

	for _, variant := range m.Variants {
		if _, ok := present[variant.Name]; ok {
			continue
		}

		merged = append(merged, variant.Name)
	}

	return merged
}
