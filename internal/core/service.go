package core

import (
	"context"
	stderr "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oarlock/ferry/internal/utils"
	"github.com/oarlock/ferry/pkg/backend"
	"github.com/oarlock/ferry/pkg/database"
	"github.com/oarlock/ferry/pkg/errors"
	"github.com/oarlock/ferry/pkg/structs"
)

const (
	// defaults
	defTidyFrequency  = 3 * time.Minute
	defTidyThreshold  = 5 * time.Minute
	defMaxJobRuntime  = 24 * time.Hour
	defTidyBatchLimit = 1000
)

var (
	incompleteStates = []structs.State{
		structs.SUBMITTED,
		structs.RUNNING,
	}
)

// Service is the server side of ferry: it persists submitted specs, hands
// them to the execution backend & keeps stored job states in sync.
type Service struct {
	db   database.Database
	be   backend.Backend
	opts *structs.Options
	log  *zap.Logger
	stop chan struct{}
}

func NewService(db database.Database, be backend.Backend, opts *structs.Options) (*Service, error) {
	if opts == nil {
		opts = &structs.Options{
			MaxJobRuntime:       defMaxJobRuntime,
			TidyFrequency:       defTidyFrequency,
			TidyUpdateThreshold: defTidyThreshold,
		}
	}
	me := &Service{
		db:   db,
		be:   be,
		opts: opts,
		log:  zap.Must(zap.NewProduction()),
		stop: make(chan struct{}),
	}

	if opts.TidyFrequency > 0 {
		// Periodically recheck jobs that aren't complete against the
		// backend, in case status updates were dropped / errors occurred.
		go func() {
			tick := time.NewTicker(opts.TidyFrequency)
			defer tick.Stop()
			for {
				select {
				case <-tick.C:
					me.tidy()
				case <-me.stop:
					return
				}
			}
		}()
	}

	return me, nil
}

func (c *Service) Close() error {
	close(c.stop)
	c.be.Close()
	return c.db.Close()
}

// SubmitJob validates the spec, submits it to the backend & records the
// resulting handle.
func (c *Service) SubmitJob(ctx context.Context, spec *structs.JobSpec) (*structs.Job, error) {
	err := structs.Validate(spec)
	if err != nil {
		return nil, err
	}

	backendID, err := c.be.Submit(ctx, spec)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	job := &structs.Job{
		JobSpec:      *spec.Copy(),
		ID:           utils.NewRandomID(),
		State:        structs.SUBMITTED,
		ETag:         utils.NewRandomID(),
		BackendJobID: backendID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = c.db.InsertJob(job)
	if err != nil {
		// we can't track it, so don't leave it running
		if cerr := c.be.Cancel(ctx, backendID); cerr != nil {
			c.log.Warn("failed to cancel untracked job", zap.String("backend_id", backendID), zap.Error(cerr))
		}
		return nil, err
	}
	return job, nil
}

// Jobs lists jobs matching the query from the store.
func (c *Service) Jobs(ctx context.Context, q *structs.Query) ([]*structs.Job, error) {
	return c.db.Jobs(q)
}

// Cancel asks the backend to stop the referenced jobs. Best effort; stored
// state is updated by the tidy routine once the backend confirms.
func (c *Service) Cancel(ctx context.Context, refs []*structs.ObjectRef) (int64, error) {
	byID, err := validateRefs(refs)
	if err != nil {
		return 0, err
	}

	ids := []string{}
	for id := range byID {
		ids = append(ids, id)
	}
	jobs, err := c.db.Jobs(&structs.Query{JobIDs: ids, Limit: len(ids)})
	if err != nil {
		return 0, err
	}

	var count int64
	for _, job := range jobs {
		if structs.IsTerminalState(job.State) {
			continue
		}
		if byID[job.ID] != job.ETag {
			return count, fmt.Errorf("%w job %s", errors.ErrETagMismatch, job.ID)
		}
		if err := c.be.Cancel(ctx, job.BackendJobID); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// tidy fetches incomplete jobs & reconciles them against the backend.
func (c *Service) tidy() {
	jobs, err := c.db.Jobs(&structs.Query{States: incompleteStates, Limit: defTidyBatchLimit})
	if err != nil {
		c.log.Error("tidy failed to list jobs", zap.Error(err))
		return
	}
	c.tidyJobs(context.Background(), jobs)
}

func (c *Service) tidyJobs(ctx context.Context, jobs []*structs.Job) {
	now := time.Now().Unix()

	for _, job := range jobs {
		if structs.IsTerminalState(job.State) {
			continue
		}
		if now-job.UpdatedAt < int64(c.opts.TidyUpdateThreshold/time.Second) {
			continue // recently updated, leave it be
		}

		err := c.reconcile(ctx, job, now)
		if err != nil {
			c.log.Warn("tidy failed to reconcile job", zap.String("id", job.ID), zap.Error(err))
		}
	}
}

// reconcile brings a single stored job in line with the backend's view.
func (c *Service) reconcile(ctx context.Context, job *structs.Job, now int64) error {
	ref := structs.NewObjectRef(job.ID, job.ETag)

	remote, err := c.be.Status(ctx, job.BackendJobID)
	if stderr.Is(err, errors.ErrNotFound) {
		_, err = c.db.SetJobsState(structs.FAILED, utils.NewRandomID(), []*structs.ObjectRef{ref}, "job lost by backend")
		return err
	}
	if err != nil {
		return err
	}

	switch {
	case remote.State == structs.SUCCEEDED:
		locations := remote.ResultLocations
		if len(locations) == 0 {
			locations = job.OutputDestinations()
		}
		_, err = c.db.SetJobSucceeded(ref, utils.NewRandomID(), locations)
		return err

	case structs.IsTerminalState(remote.State):
		_, err = c.db.SetJobsState(remote.State, utils.NewRandomID(), []*structs.ObjectRef{ref}, remote.Message)
		return err

	case c.expired(job, now):
		// past its deadline; ask the backend to stop it & record the timeout
		if cerr := c.be.Cancel(ctx, job.BackendJobID); cerr != nil {
			c.log.Warn("failed to cancel expired job", zap.String("id", job.ID), zap.Error(cerr))
		}
		_, err = c.db.SetJobsState(structs.TIMED_OUT, utils.NewRandomID(), []*structs.ObjectRef{ref},
			fmt.Sprintf("exceeded %ds", c.deadlineSeconds(job)))
		return err

	case remote.State != job.State:
		_, err = c.db.SetJobsState(remote.State, utils.NewRandomID(), []*structs.ObjectRef{ref})
		return err
	}

	return nil
}

func (c *Service) deadlineSeconds(job *structs.Job) int64 {
	if job.TimeoutSeconds > 0 {
		return job.TimeoutSeconds
	}
	return int64(c.opts.MaxJobRuntime / time.Second)
}

func (c *Service) expired(job *structs.Job, now int64) bool {
	deadline := c.deadlineSeconds(job)
	return deadline > 0 && now-job.CreatedAt > deadline
}

func validateRefs(in []*structs.ObjectRef) (map[string]string, error) {
	out := map[string]string{}
	for _, r := range in {
		if !utils.IsValidID(r.ID) {
			return nil, fmt.Errorf("%w %s", errors.ErrInvalidArg, r.ID)
		}
		if !utils.IsValidID(r.ETag) {
			return nil, fmt.Errorf("%w %s", errors.ErrInvalidArg, r.ETag)
		}
		out[r.ID] = r.ETag
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w no refs given", errors.ErrInvalidArg)
	}
	return out, nil
}
