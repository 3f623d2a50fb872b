package main

import (
	"context"
	"fmt"

	"github.com/oarlock/ferry/pkg/api/http/client"
	"github.com/oarlock/ferry/pkg/errors"
	"github.com/oarlock/ferry/pkg/structs"
)

const (
	docCancel = `Cancel a running job`
)

type optsCancel struct {
	optsGeneral
	optsClient

	ETag string `long:"etag" description:"Expected job etag; fetched from the server when not given"`

	Args struct {
		ID string `positional-arg-name:"job-id" required:"true" description:"Job ID"`
	} `positional-args:"true"`
}

func (c *optsCancel) Execute(args []string) error {
	cli, err := client.New(orDefault(c.ServerURL, defaultServerURL))
	if err != nil {
		return err
	}
	ctx := context.Background()

	etag := c.ETag
	if etag == "" {
		jobs, err := cli.Jobs(ctx, &structs.Query{JobIDs: []string{c.Args.ID}, Limit: 1})
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			return fmt.Errorf("%w job %s", errors.ErrNotFound, c.Args.ID)
		}
		etag = jobs[0].ETag
	}

	count, err := cli.Cancel(ctx, []*structs.ObjectRef{structs.NewObjectRef(c.Args.ID, etag)})
	if err != nil {
		return err
	}
	fmt.Printf("cancelled %d job(s)\n", count)
	return nil
}
