package api

import (
	"context"

	"github.com/oarlock/ferry/pkg/structs"
)

// API represents the functions ferry servers should expose.
type API interface {
	// Implemented in ferry/internal/core.Service

	// SubmitJob validates & persists the spec, hands it to the execution
	// backend & returns a handle in state SUBMITTED.
	SubmitJob(ctx context.Context, spec *structs.JobSpec) (*structs.Job, error)

	// Jobs lists jobs matching the query.
	Jobs(ctx context.Context, q *structs.Query) ([]*structs.Job, error)

	// Cancel asks the backend to stop the referenced jobs (best effort)
	// & returns how many cancel requests were issued.
	Cancel(ctx context.Context, r []*structs.ObjectRef) (int64, error)

	// Close shuts down the service.
	Close() error
}

type Server interface {
	ServeForever(api API) error
	Close() error
}
