package structs

// Job is a live handle to a submitted JobSpec.
type Job struct {
	// JobSpec is the spec this job was submitted with
	JobSpec `json:",inline"`

	// ID is a unique identifier for this job
	ID string `json:"id"`

	// State is the current state of this job
	State State `json:"state"`

	// ETag is used when updating a job for optimistic locking
	ETag string `json:"etag"`

	// BackendJobID is the ID the execution backend assigned on submission.
	// Kept here for tracking & in order to Cancel the job if required.
	BackendJobID string `json:"backend_job_id"`

	// ResultLocations are the output locations, populated only once the
	// job reaches SUCCEEDED.
	ResultLocations []string `json:"result_locations"`

	// Message is an optional message from the backend (eg. failure detail).
	Message string `json:"message"`

	// CreatedAt is the time this job was submitted, unix time in seconds
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the time this job was last updated, unix time in seconds
	UpdatedAt int64 `json:"updated_at"`
}

// ObjectRef is a reference to a unique job & version.
type ObjectRef struct {
	// ID is the unique identifier for this job.
	ID string `json:"id"`

	// ETag is the version of this job.
	ETag string `json:"etag"`
}

// NewObjectRef creates a new ObjectRef.
func NewObjectRef(id, etag string) *ObjectRef {
	return &ObjectRef{ID: id, ETag: etag}
}
