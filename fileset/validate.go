package fileset

import (
	"fmt"
	"os"
	"strings"
)

// RequiredFileName returns the name of the per-folder
// required file derived from the folder name.
func RequiredFileName(folder string) string {
	return folder + ".txt"
}

// RequireNonBlank checks that path exists, is a regular
// file, and contains at least one non-whitespace
// character.
func RequireNonBlank(path string) error {
	const errCtx = "validating required file"

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf(
				"%s: %s does not exist",
				errCtx, path,
			)
		}

		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if info.IsDir() {
		return fmt.Errorf(
			"%s: %s is a directory", errCtx, path,
		)
	}

	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if strings.TrimSpace(string(data)) == "" {
		return fmt.Errorf(
			"%s: %s is blank", errCtx, path,
		)
	}

	return nil
}
