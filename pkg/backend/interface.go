package backend

import (
	"context"

	"github.com/oarlock/ferry/pkg/structs"
)

//go:generate mockgen -destination=../../internal/mocks/pkg/backend_mock/backend.go -package=backend_mock github.com/oarlock/ferry/pkg/backend Backend

// Remote is the backend's view of a submitted job.
type Remote struct {
	// State of the job as the backend reports it.
	State structs.State

	// ResultLocations the backend delivered output to. Only meaningful
	// once State is SUCCEEDED.
	ResultLocations []string

	// Message is optional backend detail (eg. failure reason).
	Message string
}

// Backend is an external execution service that actually runs the workload.
//
// Ferry hands it a JobSpec & tracks the returned ID; the backend owns the
// remote compute resource & its teardown. Data locations in the spec are
// opaque URIs resolved by the backend, never read or written by ferry.
type Backend interface {
	// Submit serializes the spec into whatever form the backend requires
	// & issues the request, returning the backend's job ID.
	//
	// Errors wrap ErrBackendUnavailable if the backend can't be reached,
	// or ErrRejected if it refused the spec.
	Submit(ctx context.Context, spec *structs.JobSpec) (string, error)

	// Status queries the backend for the job's current state.
	Status(ctx context.Context, backendID string) (*Remote, error)

	// Cancel asks the backend to stop the job. Best effort; the backend
	// may not honour it & callers should re-poll to confirm.
	Cancel(ctx context.Context, backendID string) error

	// Close releases backend connections.
	Close() error
}
