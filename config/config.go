// Package config loads the run configuration from the
// workspace's .env file (environment variables take
// precedence) and the optional variants manifest.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvFileName is the dotenv file read from the
// workspace root.
const EnvFileName = ".env"

// Required .env keys. A run aborts before any folder
// processing when one is missing.
const (
	KeyRepoURL       = "DEFAULT_REPO_URL"
	KeyUsername      = "GITHUB_USERNAME"
	KeyToken         = "GITHUB_TOKEN"
	KeyMainFolder    = "MAIN_FOLDER_NAME"
	KeyCustomFolders = "CUSTOM_FOLDERS"
)

// Optional .env keys.
const (
	KeyExcludeNames      = "EXCLUDE_NAMES"
	KeyDescriptionFile   = "PR_DESCRIPTION_FILE"
	KeyDescriptionStatic = "PR_DESCRIPTION"
)

// Config is the validated run configuration.
type Config struct {
	// RepoURL is the remote repository the branches
	// are pushed to.
	RepoURL string

	// Username is the hosting platform account used
	// for API calls.
	Username string

	// Token is the hosting platform access token.
	Token string

	// MainFolder is the template folder name, also
	// the base branch for pull requests.
	MainFolder string

	// CustomFolders are the variant folder names.
	CustomFolders []string

	// ExcludeNames are file names skipped during
	// upload and sync, at any depth.
	ExcludeNames []string

	// PRDescriptionFile is the per-folder description
	// file name. When set, the file must exist and be
	// non-blank in every folder that gets a PR.
	PRDescriptionFile string

	// PRDescription is the static description used
	// when no description file is configured.
	PRDescription string
}

// Load reads root/.env (when present), overlays process
// environment variables, and validates the required
// keys. All missing required keys are reported in one
// error.
func Load(root string) (*Config, error) {
	const errCtx = "loading configuration"

	v := viper.New()
	v.AutomaticEnv()

	path := filepath.Join(root, EnvFileName)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("env")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}
	}

	var missing []string

	for _, key := range []string{
		KeyRepoURL,
		KeyUsername,
		KeyToken,
		KeyMainFolder,
		KeyCustomFolders,
	} {
		if strings.TrimSpace(
			v.GetString(key),
		) == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf(
			"%s: missing required keys: %s",
			errCtx,
			strings.Join(missing, ", "),
		)
	}

	cfg := &Config{
		RepoURL:    v.GetString(KeyRepoURL),
		Username:   v.GetString(KeyUsername),
		Token:      v.GetString(KeyToken),
		MainFolder: v.GetString(KeyMainFolder),
		CustomFolders: splitCSV(
			v.GetString(KeyCustomFolders),
		),
		ExcludeNames: splitCSV(
			v.GetString(KeyExcludeNames),
		),
		PRDescriptionFile: v.GetString(
			KeyDescriptionFile,
		),
		PRDescription: v.GetString(
			KeyDescriptionStatic,
		),
	}

	if len(cfg.CustomFolders) == 0 {
		return nil, fmt.Errorf(
			"%s: %s lists no folder names",
			errCtx, KeyCustomFolders,
		)
	}

	return cfg, nil
}

// splitCSV splits a comma-separated value, trimming
// whitespace and dropping empty entries.
func splitCSV(val string) []string {
	var out []string

	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}

	return out
}
