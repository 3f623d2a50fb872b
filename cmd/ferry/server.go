package main

import (
	"github.com/oarlock/ferry/internal/utils"
	"github.com/oarlock/ferry/pkg/api"
	"github.com/oarlock/ferry/pkg/api/http/server"
	"github.com/oarlock/ferry/pkg/backend"
	"github.com/oarlock/ferry/pkg/database"
)

const (
	docServer = `Run the ferry API server`
)

type optsServer struct {
	optsGeneral
	optsDatabase
	optsQueue

	Addr string `long:"addr" env:"ADDR" description:"Address to bind to"`
}

func (c *optsServer) Execute(args []string) error {
	// Runs the full server side: the HTTP API, the postgres job store & the
	// background routines that keep stored jobs in sync with the queue.
	dbOpts := &database.Options{URL: orDefault(c.DatabaseURL, defaultDatabaseURL)}

	if err := database.Migrate(dbOpts); err != nil {
		return err
	}
	db, err := database.NewPostgres(dbOpts)
	if err != nil {
		return err
	}

	tlsCfg, err := utils.TLSConfig(c.QueueTLSCaCert, c.QueueTLSCert, c.QueueTLSKey)
	if err != nil {
		return err
	}
	be, err := backend.NewAsynq(&backend.Options{
		URL:       orDefault(c.QueueURL, defaultQueueURL),
		TLSConfig: tlsCfg,
	})
	if err != nil {
		return err
	}

	svc, err := api.NewAPI(db, be, api.OptionsServerDefault())
	if err != nil {
		return err
	}

	s := server.NewServer(orDefault(c.Addr, defaultServerAddr), c.Debug)
	return s.ServeForever(svc)
}
