package main

import (
	"context"
	"encoding/json"
	stderr "errors"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-retry"
	"gopkg.in/yaml.v3"

	"github.com/oarlock/ferry/pkg/api/http/client"
	"github.com/oarlock/ferry/pkg/errors"
	"github.com/oarlock/ferry/pkg/structs"
)

const (
	docSubmit = `Submit a job spec (yaml file) to a ferry server`
)

type optsSubmit struct {
	optsGeneral
	optsClient

	Wait         bool          `long:"wait" description:"Block until the job reaches a terminal state"`
	PollInterval time.Duration `long:"poll-interval" default:"5s" description:"How often to poll when waiting"`
	Timeout      time.Duration `long:"timeout" default:"1h" description:"How long to wait before giving up"`

	Args struct {
		SpecFile string `positional-arg-name:"spec-file" required:"true" description:"Path to a yaml job spec"`
	} `positional-args:"true"`
}

func (c *optsSubmit) Execute(args []string) error {
	data, err := os.ReadFile(c.Args.SpecFile)
	if err != nil {
		return err
	}

	spec := &structs.JobSpec{}
	if err := yaml.Unmarshal(data, spec); err != nil {
		return err
	}
	if err := structs.Validate(spec); err != nil {
		return err
	}

	cli, err := client.New(orDefault(c.ServerURL, defaultServerURL))
	if err != nil {
		return err
	}

	ctx := context.Background()
	job, err := cli.SubmitJob(ctx, spec)
	if err != nil {
		return err
	}

	if c.Wait {
		job, err = awaitJob(ctx, cli, job.ID, c.PollInterval, c.Timeout)
		if err != nil {
			return err
		}
	}
	return printJSON(job)
}

var errJobRunning = stderr.New("job still running")

// awaitJob polls the server until the job reaches a terminal state.
func awaitJob(ctx context.Context, cli *client.Client, id string, interval, timeout time.Duration) (*structs.Job, error) {
	var job *structs.Job

	backoff := retry.WithMaxDuration(timeout, retry.NewConstant(interval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		jobs, err := cli.Jobs(ctx, &structs.Query{JobIDs: []string{id}, Limit: 1})
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			return fmt.Errorf("%w job %s", errors.ErrNotFound, id)
		}
		job = jobs[0]
		if !structs.IsTerminalState(job.State) {
			return retry.RetryableError(errJobRunning)
		}
		return nil
	})
	if stderr.Is(err, errJobRunning) {
		return job, fmt.Errorf("%w job %s still running after %s", errors.ErrTimeout, id, timeout)
	}
	return job, err
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
