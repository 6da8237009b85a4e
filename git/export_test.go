package git

// Exported aliases for testing internal functions from
// the git_test package.

// IsNonFastForwardForTest exposes isNonFastForward.
var IsNonFastForwardForTest = isNonFastForward
