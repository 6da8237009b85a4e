package pusher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valyala/fasttemplate"
)

// defaultDescriptionTemplate is used when no description
// source is configured.
const defaultDescriptionTemplate = "Auto-generated PR for branch: {{branch}}"

// resolveDescription picks the PR description for a
// folder. Precedence: per-folder manifest override, then
// the configured description file in the folder, then
// the static configured description, then the generated
// default. Every source goes through template rendering
// so {{branch}} and {{folder}} are substituted.
func resolveDescription(
	cfg Config,
	folder Folder,
) (string, error) {
	const errCtx = "resolving pr description"

	if folder.PRDescription != "" {
		return render(
			folder.PRDescription, folder.Name,
		), nil
	}

	if cfg.PRDescriptionFile != "" {
		path := filepath.Join(
			folder.Path, cfg.PRDescriptionFile,
		)

		data, err := os.ReadFile(path) //nolint:gosec
		if err != nil {
			return "", fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		content := strings.TrimSpace(string(data))
		if content == "" {
			return "", fmt.Errorf(
				"%s: %s is blank", errCtx, path,
			)
		}

		return render(content, folder.Name), nil
	}

	if cfg.PRDescription != "" {
		return render(
			cfg.PRDescription, folder.Name,
		), nil
	}

	return render(
		defaultDescriptionTemplate, folder.Name,
	), nil
}

// render substitutes {{branch}} and {{folder}}
// placeholders. Unknown placeholders are kept verbatim
// so arbitrary description text survives untouched.
func render(tpl string, branch string) string {
	return fasttemplate.ExecuteStringStd(
		tpl, "{{", "}}",
		map[string]any{
			"branch": branch,
			"folder": branch,
		},
	)
}
