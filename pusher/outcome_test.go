package pusher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goccy/go-json"

	"github.com/byte4ever/bugbash/git"
	"github.com/byte4ever/bugbash/pusher"
)

func TestSummary_Record(t *testing.T) {
	t.Parallel()

	var s pusher.Summary

	s.Record(pusher.Outcome{
		Folder: "main",
		Status: pusher.StatusPushedFastForward,
	})
	s.Record(pusher.Outcome{
		Folder: "alpha",
		Status: pusher.StatusPushedForced,
	})
	s.Record(pusher.Outcome{
		Folder: "beta",
		Status: pusher.StatusSkippedNoChange,
	})
	s.Record(pusher.Outcome{
		Folder: "gamma",
		Status: pusher.StatusNeedsForce,
	})
	s.Record(pusher.Outcome{
		Folder: "delta",
		Status: pusher.StatusFailed,
	})
	s.Record(pusher.Outcome{
		Folder: "omega",
		Status: pusher.StatusWouldPush,
	})

	assert.Equal(t, 2, s.Pushed)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.NeedsForce)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.WouldPush)
	assert.Len(t, s.Outcomes, 6)
	assert.False(t, s.OK())
}

func TestSummary_Record_pr_failure(t *testing.T) {
	t.Parallel()

	var s pusher.Summary

	// A failed PR on a successful push still fails
	// the run.
	s.Record(pusher.Outcome{
		Folder: "alpha",
		Status: pusher.StatusPushedFastForward,
		PR:     git.PRStateFailed,
	})

	assert.Equal(t, 1, s.Pushed)
	assert.Equal(t, 1, s.Failed)
	assert.False(t, s.OK())
}

func TestSummary_OK(t *testing.T) {
	t.Parallel()

	var s pusher.Summary

	assert.True(t, s.OK())

	s.Record(pusher.Outcome{
		Folder: "alpha",
		Status: pusher.StatusSkippedMissingFile,
	})
	assert.True(t, s.OK())

	s.Record(pusher.Outcome{
		Folder: "beta",
		Status: pusher.StatusNeedsForce,
	})
	assert.False(t, s.OK())
}

func TestSummary_JSON(t *testing.T) {
	t.Parallel()

	var s pusher.Summary

	s.Record(pusher.Outcome{
		Folder: "alpha",
		Branch: "alpha",
		Status: pusher.StatusPushedFastForward,
		PR:     git.PRStateCreated,
	})

	data, err := s.JSON()
	require.NoError(t, err)

	var decoded map[string]any

	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, decoded["pushed"], 0)

	outcomes, ok := decoded["folders"].([]any)
	require.True(t, ok)
	require.Len(t, outcomes, 1)
}

func TestSummary_String(t *testing.T) {
	t.Parallel()

	var s pusher.Summary

	s.Record(pusher.Outcome{
		Folder: "alpha",
		Status: pusher.StatusPushedFastForward,
	})
	s.Record(pusher.Outcome{
		Folder: "beta",
		Status: pusher.StatusFailed,
	})

	got := s.String()
	assert.Contains(t, got, "pushed=1")
	assert.Contains(t, got, "failed=1")
}

func TestOutcome_Line(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		outcome pusher.Outcome
		want    []string
	}{
		{
			name: "pushed",
			outcome: pusher.Outcome{
				Folder: "alpha",
				Branch: "alpha",
				Status: pusher.StatusPushedFastForward,
			},
			want: []string{"alpha", "pushed"},
		},
		{
			name: "needs force with reason",
			outcome: pusher.Outcome{
				Folder: "main",
				Branch: "main",
				Status: pusher.StatusNeedsForce,
				Reason: "diverging history",
			},
			want: []string{
				"main",
				"needs-force",
				"diverging history",
			},
		},
		{
			name: "with pr state",
			outcome: pusher.Outcome{
				Folder: "alpha",
				Branch: "alpha",
				Status: pusher.StatusPushedFastForward,
				PR:     git.PRStateAlreadyExists,
			},
			want: []string{"already-exists"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			line := tc.outcome.Line()

			for _, want := range tc.want {
				assert.Contains(t, line, want)
			}
		})
	}
}
