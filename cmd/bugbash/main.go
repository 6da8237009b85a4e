// Command bugbash publishes local variant folders as
// branches of a remote repository. The template folder
// becomes an orphan branch; every custom folder becomes
// a branch based on the remote main branch, optionally
// with a pull request against it.
package main

import (
	"log/slog"
	"os"
	"strings"
)

func main() {
	setupLogging()

	if err := newRootCmd().Execute(); err != nil {
		if err != errRunFailed {
			slog.Error("fatal", "error", err)
		}

		os.Exit(1)
	}
}

// setupLogging selects the log level from the
// BUGBASH_LOG environment variable. Unknown or empty
// values keep the default of warn so operator-facing
// status lines stay uncluttered.
func setupLogging() {
	level := slog.LevelWarn

	switch strings.ToLower(
		os.Getenv("BUGBASH_LOG"),
	) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	slog.SetDefault(slog.New(
		slog.NewTextHandler(
			os.Stderr,
			&slog.HandlerOptions{Level: level},
		),
	))
}
