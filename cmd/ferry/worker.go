package main

import (
	"github.com/oarlock/ferry/internal/tasks"
	"github.com/oarlock/ferry/internal/utils"
	"github.com/oarlock/ferry/pkg/backend"
)

const (
	docWorker = `Run a ferry worker with the built in entrypoints`
)

type optsWorker struct {
	optsGeneral
	optsQueue
}

func (c *optsWorker) Execute(args []string) error {
	// Pulls jobs off the queue & executes the built in entrypoints. Run as
	// many of these as you like; asynq shares the queue between them.
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
	defer be.Close()

	if err := tasks.RegisterAll(be); err != nil {
		return err
	}
	return be.Run()
}
