package submitter

import (
	"context"
	"time"

	"github.com/oarlock/ferry/pkg/structs"
)

// RemoteFunc binds a spec template to a Submitter so a remote job can be
// invoked like a plain function.
//
// The binding is explicit & inspectable: the template enumerates the code
// bundle, image, compute shape & channels up front, and Call only layers
// per-invocation parameters on top. Nothing about the caller's environment
// is captured implicitly.
type RemoteFunc struct {
	sub          *Submitter
	spec         *structs.JobSpec
	pollInterval time.Duration
	timeout      time.Duration
}

// NewRemoteFunc validates the template & returns a callable wrapper.
// A zero pollInterval / timeout falls back to the submitter's defaults.
func NewRemoteFunc(sub *Submitter, template *structs.JobSpec, pollInterval, timeout time.Duration) (*RemoteFunc, error) {
	err := structs.Validate(template)
	if err != nil {
		return nil, err
	}
	if pollInterval <= 0 {
		pollInterval = sub.opts.PollInterval
	}
	if timeout <= 0 {
		timeout = sub.opts.AwaitTimeout
	}
	return &RemoteFunc{
		sub:          sub,
		spec:         template.Copy(),
		pollInterval: pollInterval,
		timeout:      timeout,
	}, nil
}

// Spec returns a copy of the bound template.
func (f *RemoteFunc) Spec() *structs.JobSpec {
	return f.spec.Copy()
}

// Call submits the bound spec with the given parameters layered over the
// template's & blocks until the job finishes (or the await times out).
func (f *RemoteFunc) Call(ctx context.Context, params map[string]string) (*structs.Job, error) {
	spec := f.spec.Copy()
	if len(params) > 0 && spec.Parameters == nil {
		spec.Parameters = map[string]string{}
	}
	for k, v := range params {
		spec.Parameters[k] = v
	}

	job, err := f.sub.Submit(ctx, spec)
	if err != nil {
		return nil, err
	}
	return f.sub.AwaitCompletion(ctx, job, f.pollInterval, f.timeout)
}
