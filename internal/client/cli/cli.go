// Package cli implements the interactive cart client commands.
package cli

import (
	"github.com/mercanto/cartsync/internal/client/coordinator"
	"github.com/mercanto/cartsync/internal/client/iocli"
	"github.com/mercanto/cartsync/internal/client/registry"
	"github.com/mercanto/cartsync/internal/client/storage"
)

type Cli struct {
	coord    *coordinator.Coordinator
	registry *registry.Service
	eventLog storage.EventLog
	cartID   string
	io       iocli.IO
}

func New(coord *coordinator.Coordinator, reg *registry.Service, eventLog storage.EventLog, cartID string, io iocli.IO) *Cli {
	return &Cli{
		coord:    coord,
		registry: reg,
		eventLog: eventLog,
		cartID:   cartID,
		io:       io,
	}
}

func (c *Cli) PrintUsage() {
	c.io.Printf("%s", usageTemplate)
}
