package structs

// ComputeShape describes the machines a job should run on.
type ComputeShape struct {
	// InstanceType is a backend defined machine class (eg. "small").
	InstanceType string `json:"instance_type" yaml:"instance_type"`

	// InstanceCount is the number of instances to run. Must be at least 1.
	InstanceCount int64 `json:"instance_count" yaml:"instance_count"`
}

// InputChannel maps a remote data location onto a path visible to the
// running job. The source is an opaque URI resolved by the backend;
// ferry never reads the data itself.
type InputChannel struct {
	Name      string `json:"name" yaml:"name"`
	Source    string `json:"source" yaml:"source"`
	MountPath string `json:"mount_path" yaml:"mount_path"`
}

// OutputChannel maps a path written by the running job to the remote
// location the backend should deliver it to.
type OutputChannel struct {
	Name        string `json:"name" yaml:"name"`
	MountPath   string `json:"mount_path" yaml:"mount_path"`
	Destination string `json:"destination" yaml:"destination"`
}

// JobSpec is a declarative description of a unit of remote work.
//
// It is a value object; build one with NewSpec (or fill it in directly and
// call Validate). Once handed to a Submitter it is never mutated.
type JobSpec struct {
	// Name is an optional human readable name for this job
	Name string `json:"name" yaml:"name"`

	// Entrypoint is the identifier of the code to execute. For queue
	// backends this should match the name of a registered handler.
	//
	// Required.
	Entrypoint string `json:"entrypoint" yaml:"entrypoint"`

	// SourceBundle is a reference to the code / dependency bundle the job
	// needs (eg. an s3://bucket/key ref produced by pkg/bundle).
	//
	// Dependencies are enumerated explicitly; there is no implicit
	// "capture my current environment" behaviour.
	SourceBundle string `json:"source_bundle" yaml:"source_bundle"`

	// RuntimeImage identifies the execution environment (container image).
	RuntimeImage string `json:"runtime_image" yaml:"runtime_image"`

	// Compute is the shape of the machines to run on.
	Compute ComputeShape `json:"compute" yaml:"compute"`

	// Inputs are data locations mounted into the job, in order.
	Inputs []InputChannel `json:"inputs" yaml:"inputs"`

	// Outputs are paths the job writes, delivered to their destinations
	// by the backend, in order.
	Outputs []OutputChannel `json:"outputs" yaml:"outputs"`

	// Parameters are passed to the entrypoint as string key / values.
	Parameters map[string]string `json:"parameters" yaml:"parameters"`

	// TimeoutSeconds is the max runtime the backend should allow.
	// If 0, no timeout is requested.
	TimeoutSeconds int64 `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// Copy returns a deep copy, so callers can treat specs as immutable even
// when templating (see submitter.RemoteFunc).
func (s *JobSpec) Copy() *JobSpec {
	out := *s
	if s.Inputs != nil {
		out.Inputs = make([]InputChannel, len(s.Inputs))
		copy(out.Inputs, s.Inputs)
	}
	if s.Outputs != nil {
		out.Outputs = make([]OutputChannel, len(s.Outputs))
		copy(out.Outputs, s.Outputs)
	}
	if s.Parameters != nil {
		out.Parameters = map[string]string{}
		for k, v := range s.Parameters {
			out.Parameters[k] = v
		}
	}
	return &out
}

// OutputDestinations returns the declared output locations in order.
// These become the handle's ResultLocations once the job succeeds.
func (s *JobSpec) OutputDestinations() []string {
	out := []string{}
	for _, o := range s.Outputs {
		out = append(out, o.Destination)
	}
	return out
}
