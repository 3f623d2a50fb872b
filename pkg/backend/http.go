package backend

import (
	"context"
	"fmt"

	"github.com/oarlock/ferry/pkg/api/http/client"
	"github.com/oarlock/ferry/pkg/errors"
	"github.com/oarlock/ferry/pkg/structs"
)

// HTTP is a ferry backend that submits jobs to a remote ferry server
// over its REST API.
type HTTP struct {
	cli *client.Client
}

func NewHTTP(opts *Options) (*HTTP, error) {
	cli, err := client.New(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("%w %v", errors.ErrInvalidArg, err)
	}
	return &HTTP{cli: cli}, nil
}

func (h *HTTP) Submit(ctx context.Context, spec *structs.JobSpec) (string, error) {
	job, err := h.cli.SubmitJob(ctx, spec)
	if err != nil {
		return "", err
	}
	return job.ID, nil
}

func (h *HTTP) Status(ctx context.Context, backendID string) (*Remote, error) {
	job, err := h.find(ctx, backendID)
	if err != nil {
		return nil, err
	}
	return &Remote{
		State:           job.State,
		ResultLocations: job.ResultLocations,
		Message:         job.Message,
	}, nil
}

func (h *HTTP) Cancel(ctx context.Context, backendID string) error {
	// the server wants an id + etag pair so it can spot concurrent updates
	job, err := h.find(ctx, backendID)
	if err != nil {
		return err
	}
	_, err = h.cli.Cancel(ctx, []*structs.ObjectRef{structs.NewObjectRef(job.ID, job.ETag)})
	return err
}

func (h *HTTP) Close() error {
	return nil
}

func (h *HTTP) find(ctx context.Context, id string) (*structs.Job, error) {
	jobs, err := h.cli.Jobs(ctx, &structs.Query{JobIDs: []string{id}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w job %s", errors.ErrNotFound, id)
	}
	return jobs[0], nil
}
