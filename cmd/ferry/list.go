package main

import (
	"context"
	"fmt"

	"github.com/oarlock/ferry/pkg/api/http/client"
	"github.com/oarlock/ferry/pkg/errors"
	"github.com/oarlock/ferry/pkg/structs"
)

const (
	docList = `List jobs on a ferry server`
)

type optsList struct {
	optsGeneral
	optsClient

	Limit       int      `long:"limit" default:"100" description:"Max jobs to return"`
	Offset      int      `long:"offset" description:"Offset into the result set"`
	States      []string `long:"state" description:"Only jobs in these states"`
	Entrypoints []string `long:"entrypoint" description:"Only jobs with these entrypoints"`
}

func (c *optsList) Execute(args []string) error {
	cli, err := client.New(orDefault(c.ServerURL, defaultServerURL))
	if err != nil {
		return err
	}

	states := []structs.State{}
	for _, s := range c.States {
		st := structs.ToState(s)
		if st == "" {
			return fmt.Errorf("%w unknown state %s", errors.ErrInvalidArg, s)
		}
		states = append(states, st)
	}

	jobs, err := cli.Jobs(context.Background(), &structs.Query{
		Limit:       c.Limit,
		Offset:      c.Offset,
		States:      states,
		Entrypoints: c.Entrypoints,
	})
	if err != nil {
		return err
	}
	return printJSON(jobs)
}
