package backend

import (
	"context"
	"encoding/json"
	stderr "errors"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"github.com/oarlock/ferry/pkg/errors"
	"github.com/oarlock/ferry/pkg/structs"
)

const (
	asynqWorkQueue = "ferry:work"

	// how long finished tasks keep their result around for polling
	asynqResultRetention = 24 * time.Hour

	asynqConcurrency = 10

	// the only compute shape a worker-pool backend can honour
	asynqInstanceType = "local"
)

// Handler runs an entrypoint against a spec & returns the locations it
// delivered output to.
type Handler func(ctx context.Context, spec *structs.JobSpec) ([]string, error)

// Asynq is a ferry backend that pushes jobs onto a redis backed queue,
// where registered workers execute them.
//
// It acts as both the submission side (Submit / Status / Cancel) and, via
// Register & Run, the worker side.
type Asynq struct {
	opts *Options
	conn asynq.RedisConnOpt

	// the asynq client & inspector
	cli *asynq.Client
	ins *asynq.Inspector

	// if Register is called we're intended to start a server
	lock sync.Mutex
	mux  *asynq.ServeMux
	srv  *asynq.Server
}

func NewAsynq(opts *Options) (*Asynq, error) {
	conn, err := asynq.ParseRedisURI(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("%w %v", errors.ErrInvalidArg, err)
	}
	if c, ok := conn.(asynq.RedisClientOpt); ok && opts.TLSConfig != nil {
		c.TLSConfig = opts.TLSConfig
		conn = c
	}
	return &Asynq{
		opts: opts,
		conn: conn,
		cli:  asynq.NewClient(conn),
		ins:  asynq.NewInspector(conn),
	}, nil
}

func (a *Asynq) Submit(ctx context.Context, spec *structs.JobSpec) (string, error) {
	// workers run in-process; we can't honour machine classes or fan out
	if spec.Compute.InstanceType != asynqInstanceType {
		return "", fmt.Errorf("%w instance type %s (queue backend supports %q only)", errors.ErrRejected, spec.Compute.InstanceType, asynqInstanceType)
	}
	if spec.Compute.InstanceCount != 1 {
		return "", fmt.Errorf("%w instance count %d (queue backend supports 1 only)", errors.ErrRejected, spec.Compute.InstanceCount)
	}

	payload, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("%w %v", errors.ErrRejected, err)
	}

	opts := []asynq.Option{
		asynq.Queue(asynqWorkQueue),
		asynq.MaxRetry(0),
		asynq.Retention(asynqResultRetention),
	}
	if spec.TimeoutSeconds > 0 {
		opts = append(opts, asynq.Timeout(time.Duration(spec.TimeoutSeconds)*time.Second))
	}

	info, err := a.cli.EnqueueContext(ctx, asynq.NewTask(spec.Entrypoint, payload), opts...)
	if err != nil {
		return "", fmt.Errorf("%w %v", errors.ErrBackendUnavailable, err)
	}
	return info.ID, nil
}

func (a *Asynq) Status(ctx context.Context, backendID string) (*Remote, error) {
	info, err := a.ins.GetTaskInfo(asynqWorkQueue, backendID)
	if err != nil {
		if stderr.Is(err, asynq.ErrTaskNotFound) || stderr.Is(err, asynq.ErrQueueNotFound) {
			return nil, fmt.Errorf("%w job %s", errors.ErrNotFound, backendID)
		}
		return nil, fmt.Errorf("%w %v", errors.ErrBackendUnavailable, err)
	}

	remote := &Remote{State: mapTaskState(info.State), Message: info.LastErr}
	if remote.State == structs.SUCCEEDED && len(info.Result) > 0 {
		// workers record delivered output locations as the task result
		locations := []string{}
		if err := json.Unmarshal(info.Result, &locations); err == nil {
			remote.ResultLocations = locations
		}
	}
	return remote, nil
}

func (a *Asynq) Cancel(ctx context.Context, backendID string) error {
	// Best effort; asynq can't guarantee this will stop it
	err := a.ins.CancelProcessing(backendID)
	if err != nil {
		return fmt.Errorf("%w %v", errors.ErrBackendUnavailable, err)
	}
	return nil
}

// Register a handler for an entrypoint. Jobs submitted with a matching
// Entrypoint will be executed by this process once Run is called.
func (a *Asynq) Register(entrypoint string, handler Handler) error {
	if a.mux == nil {
		a.buildServer()
	}
	a.mux.HandleFunc(entrypoint, func(ctx context.Context, t *asynq.Task) error {
		spec := &structs.JobSpec{}
		if err := json.Unmarshal(t.Payload(), spec); err != nil {
			return err
		}
		locations, err := handler(ctx, spec)
		if err != nil {
			return err
		}
		if locations == nil {
			locations = spec.OutputDestinations()
		}
		result, err := json.Marshal(locations)
		if err != nil {
			return err
		}
		if rw := t.ResultWriter(); rw != nil {
			_, err = rw.Write(result)
		}
		return err
	})
	return nil
}

// Run the worker & process jobs (via Register funcs). Blocks until the
// server is stopped or errors.
func (a *Asynq) Run() error {
	if a.srv == nil {
		return fmt.Errorf("%w no handlers registered", errors.ErrInvalidArg)
	}
	return a.srv.Run(a.mux)
}

func (a *Asynq) Close() error {
	if a.srv != nil {
		a.srv.Stop()
		a.srv.Shutdown()
	}
	return a.cli.Close()
}

func (a *Asynq) buildServer() {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.mux != nil {
		// someone locked and set this first
		return
	}
	a.srv = asynq.NewServer(
		a.conn,
		asynq.Config{
			Queues:      map[string]int{asynqWorkQueue: 1},
			Concurrency: asynqConcurrency,
		},
	)
	a.mux = asynq.NewServeMux()
}

func mapTaskState(st asynq.TaskState) structs.State {
	switch st {
	case asynq.TaskStateActive:
		return structs.RUNNING
	case asynq.TaskStateCompleted:
		return structs.SUCCEEDED
	case asynq.TaskStateArchived:
		return structs.FAILED
	default:
		// pending, scheduled, retry & aggregating are all "not started yet"
		// from the caller's point of view
		return structs.SUBMITTED
	}
}
