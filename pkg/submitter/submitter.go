package submitter

import (
	"context"
	stderr "errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/oarlock/ferry/internal/utils"
	"github.com/oarlock/ferry/pkg/backend"
	"github.com/oarlock/ferry/pkg/errors"
	"github.com/oarlock/ferry/pkg/structs"
)

// Submitter turns JobSpecs into running remote jobs & tracks their handles.
//
// It holds no shared mutable state between handles; many jobs can be in
// flight at once & polled independently. There are no built in retries:
// callers who want to retry transient submission failures wrap Submit
// themselves, since the backend's transient-failure taxonomy is opaque here.
type Submitter struct {
	be   backend.Backend
	opts *Options
}

func New(be backend.Backend, opts *Options) *Submitter {
	if opts == nil {
		opts = OptionsDefault()
	}
	return &Submitter{be: be, opts: opts}
}

// Submit validates the spec, hands it to the backend & returns a handle in
// state SUBMITTED.
func (s *Submitter) Submit(ctx context.Context, spec *structs.JobSpec) (*structs.Job, error) {
	err := structs.Validate(spec)
	if err != nil {
		return nil, err
	}

	backendID, err := s.be.Submit(ctx, spec)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	return &structs.Job{
		JobSpec:      *spec.Copy(),
		ID:           utils.NewRandomID(),
		State:        structs.SUBMITTED,
		ETag:         utils.NewRandomID(),
		BackendJobID: backendID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Poll queries the backend for the job's current state & returns an updated
// handle. Idempotent; a handle already in a terminal state is returned as
// is without a backend call, since no further transition can occur.
func (s *Submitter) Poll(ctx context.Context, job *structs.Job) (*structs.Job, error) {
	cur := *job
	if structs.IsTerminalState(cur.State) {
		return &cur, nil
	}

	remote, err := s.be.Status(ctx, cur.BackendJobID)
	if err != nil {
		return &cur, err
	}

	if remote.State != cur.State {
		cur.State = remote.State
		cur.ETag = utils.NewRandomID()
		cur.UpdatedAt = time.Now().Unix()
	}
	if remote.Message != "" {
		cur.Message = remote.Message
	}
	if cur.State == structs.SUCCEEDED {
		cur.ResultLocations = remote.ResultLocations
		if len(cur.ResultLocations) == 0 {
			// backend didn't report locations; the declared destinations
			// are where output was delivered
			cur.ResultLocations = cur.OutputDestinations()
		}
	}
	return &cur, nil
}

// AwaitCompletion polls until the job reaches a terminal state or the
// timeout elapses, sleeping pollInterval between polls. Only the calling
// goroutine is suspended.
//
// On timeout the remote job is NOT cancelled; the last observed handle is
// returned alongside ErrTimeout so the caller can keep polling (or Cancel).
func (s *Submitter) AwaitCompletion(ctx context.Context, job *structs.Job, pollInterval, timeout time.Duration) (*structs.Job, error) {
	if pollInterval <= 0 {
		pollInterval = s.opts.PollInterval
	}

	cur, err := s.Poll(ctx, job)
	if err != nil {
		return cur, err
	}
	if structs.IsTerminalState(cur.State) {
		return cur, nil
	}
	if timeout <= 0 {
		return cur, fmt.Errorf("%w job %s still %s after initial poll", errors.ErrTimeout, cur.ID, cur.State)
	}

	notDone := fmt.Errorf("not in a terminal state")
	err = retry.Do(ctx, retry.WithMaxDuration(timeout, retry.NewConstant(pollInterval)), func(ctx context.Context) error {
		latest, err := s.Poll(ctx, cur)
		if err != nil {
			return err // polling errors surface immediately, no retry
		}
		cur = latest
		if !structs.IsTerminalState(cur.State) {
			return retry.RetryableError(notDone)
		}
		return nil
	})
	if stderr.Is(err, notDone) {
		return cur, fmt.Errorf("%w job %s still %s after %s", errors.ErrTimeout, cur.ID, cur.State, timeout)
	}
	return cur, err
}

// Await is AwaitCompletion with the submitter's default interval & timeout.
func (s *Submitter) Await(ctx context.Context, job *structs.Job) (*structs.Job, error) {
	return s.AwaitCompletion(ctx, job, s.opts.PollInterval, s.opts.AwaitTimeout)
}

// Cancel asks the backend to stop the job. Best effort & advisory; the
// backend owns the remote compute resource. The handle keeps its last
// observed state & the caller must re-poll to confirm.
func (s *Submitter) Cancel(ctx context.Context, job *structs.Job) error {
	if structs.IsTerminalState(job.State) {
		return fmt.Errorf("%w job %s is %s", errors.ErrTerminalState, job.ID, job.State)
	}
	return s.be.Cancel(ctx, job.BackendJobID)
}

// Close releases the underlying backend.
func (s *Submitter) Close() error {
	return s.be.Close()
}
