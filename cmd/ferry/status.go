package main

import (
	"context"
	"fmt"

	"github.com/oarlock/ferry/pkg/api/http/client"
	"github.com/oarlock/ferry/pkg/errors"
	"github.com/oarlock/ferry/pkg/structs"
)

const (
	docStatus = `Show a single job`
)

type optsStatus struct {
	optsGeneral
	optsClient

	Args struct {
		ID string `positional-arg-name:"job-id" required:"true" description:"Job ID"`
	} `positional-args:"true"`
}

func (c *optsStatus) Execute(args []string) error {
	cli, err := client.New(orDefault(c.ServerURL, defaultServerURL))
	if err != nil {
		return err
	}

	jobs, err := cli.Jobs(context.Background(), &structs.Query{JobIDs: []string{c.Args.ID}, Limit: 1})
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("%w job %s", errors.ErrNotFound, c.Args.ID)
	}
	return printJSON(jobs[0])
}
