package api

import (
	"time"

	"github.com/oarlock/ferry/pkg/structs"
)

const (
	defMaxJobRuntime = 24 * time.Hour
)

// OptionsClientDefault runs a ferry service with no background tidy
// routines. Intended for callers who only want to submit & query.
func OptionsClientDefault() *structs.Options {
	return &structs.Options{
		MaxJobRuntime: defMaxJobRuntime,
	}
}

// OptionsServerDefault runs a ferry service with background routines that
// keep stored job states in sync with the backend & time out stragglers.
func OptionsServerDefault() *structs.Options {
	return &structs.Options{
		MaxJobRuntime:       defMaxJobRuntime,
		TidyFrequency:       3 * time.Minute,
		TidyUpdateThreshold: 5 * time.Minute,
	}
}
