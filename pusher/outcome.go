package pusher

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/bugbash/git"
)

// Status is the per-folder push result.
type Status string

const (
	// StatusPushedFastForward means the remote
	// accepted the safe push.
	StatusPushedFastForward Status = "pushed"

	// StatusPushedForced means the remote tip was
	// replaced with operator authorization.
	StatusPushedForced Status = "pushed-forced"

	// StatusSkippedNoChange means the snapshot tree
	// equals the remote tip; nothing was pushed.
	StatusSkippedNoChange Status = "skipped-no-change"

	// StatusSkippedMissingFile means the folder lacks
	// its required <name>.txt file and was excluded
	// before any branch work.
	StatusSkippedMissingFile Status = "skipped-missing-file"

	// StatusSkippedNoDescription means the configured
	// PR description file is absent or blank; the
	// folder was excluded before any branch work.
	StatusSkippedNoDescription Status = "skipped-missing-description"

	// StatusNeedsForce means the safe push was
	// rejected and forcing was not authorized.
	StatusNeedsForce Status = "needs-force"

	// StatusWouldPush is the dry-run stand-in for a
	// push that would have happened.
	StatusWouldPush Status = "would-push"

	// StatusFailed means the folder errored; the
	// reason carries the cause.
	StatusFailed Status = "failed"
)

// Outcome is the recorded result for one folder.
type Outcome struct {
	Folder string      `json:"folder"`
	Branch string      `json:"branch"`
	Status Status      `json:"status"`
	Reason string      `json:"reason,omitempty"`
	PR     git.PRState `json:"pull_request,omitempty"`
}

// Line renders the outcome as a single operator-facing
// status line.
func (o Outcome) Line() string {
	line := fmt.Sprintf(
		"%-12s %s", o.Folder, o.Status,
	)

	if o.PR != git.PRStateNotApplicable {
		line += fmt.Sprintf(" (pr: %s)", o.PR)
	}

	if o.Reason != "" {
		line += ": " + o.Reason
	}

	return line
}

// Summary accumulates one Outcome per folder. A single
// folder's failure never stops the run; it is counted
// here and reflected in the exit status.
type Summary struct {
	Outcomes   []Outcome `json:"folders"`
	Pushed     int       `json:"pushed"`
	Skipped    int       `json:"skipped"`
	WouldPush  int       `json:"would_push,omitempty"`
	NeedsForce int       `json:"needs_force"`
	Failed     int       `json:"failed"`
}

// Record appends an outcome and updates the counters.
// A folder that pushed but whose pull request failed
// counts as failed.
func (s *Summary) Record(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)

	switch o.Status {
	case StatusPushedFastForward, StatusPushedForced:
		s.Pushed++
	case StatusSkippedNoChange,
		StatusSkippedMissingFile,
		StatusSkippedNoDescription:
		s.Skipped++
	case StatusWouldPush:
		s.WouldPush++
	case StatusNeedsForce:
		s.NeedsForce++
	case StatusFailed:
		s.Failed++
	}

	if o.Status != StatusFailed &&
		o.PR == git.PRStateFailed {
		s.Failed++
	}
}

// OK reports whether every folder succeeded or was
// legitimately skipped. False means the process should
// exit non-zero.
func (s *Summary) OK() bool {
	return s.Failed == 0 && s.NeedsForce == 0
}

// JSON renders the summary for machine consumption.
func (s *Summary) JSON() ([]byte, error) {
	const errCtx = "encoding summary"

	by, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return by, nil
}

// String renders the aggregate line shown after the
// per-folder status lines.
func (s *Summary) String() string {
	return fmt.Sprintf(
		"pushed=%d skipped=%d needs-force=%d failed=%d",
		s.Pushed, s.Skipped, s.NeedsForce, s.Failed,
	)
}
