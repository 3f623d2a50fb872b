package database

import (
	"github.com/oarlock/ferry/pkg/structs"
)

//go:generate mockgen -destination=../../internal/mocks/pkg/database_mock/database.go -package=database_mock github.com/oarlock/ferry/pkg/database Database

// Database stores submitted jobs & their last observed states, so the
// server can answer queries without round-tripping to the backend.
type Database interface {
	// InsertJob records a newly submitted job.
	InsertJob(j *structs.Job) error

	// SetJobsState sets the state of the given jobs (id + etag pairs).
	// Jobs already in a terminal state are never changed. Returns the
	// number of rows altered.
	SetJobsState(state structs.State, newTag string, ids []*structs.ObjectRef, msg ...string) (int64, error)

	// SetJobSucceeded marks a job SUCCEEDED & records where its output
	// was delivered.
	SetJobSucceeded(ref *structs.ObjectRef, newTag string, results []string) (int64, error)

	// Jobs returns jobs matching the given query.
	Jobs(q *structs.Query) ([]*structs.Job, error)

	Close() error
}
