package submitter

import (
	"time"
)

const (
	defPollInterval = 5 * time.Second
	defAwaitTimeout = 1 * time.Hour
)

// Options passed to a Submitter on creation.
type Options struct {
	// PollInterval is how long AwaitCompletion sleeps between polls when
	// the caller doesn't say.
	PollInterval time.Duration

	// AwaitTimeout is how long AwaitCompletion waits for a terminal state
	// when the caller doesn't say.
	AwaitTimeout time.Duration
}

func OptionsDefault() *Options {
	return &Options{
		PollInterval: defPollInterval,
		AwaitTimeout: defAwaitTimeout,
	}
}
