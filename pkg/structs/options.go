package structs

import (
	"time"
)

// Options passed to the ferry service on creation.
type Options struct {
	// MaxJobRuntime is the absolute maximum time a job with no explicit
	// TimeoutSeconds is permitted to run for. After this time the tidy
	// routine marks it FAILED & asks the backend to stop it.
	MaxJobRuntime time.Duration

	// TidyFrequency is how often we re-check jobs that aren't in a
	// terminal state against the backend (in case status updates from
	// workers were dropped / errors occurred).
	TidyFrequency time.Duration

	// TidyUpdateThreshold sets how far back in time the last update to a
	// job must be before we'll forcibly recheck it. Jobs in a terminal
	// state are never tidied.
	TidyUpdateThreshold time.Duration
}
