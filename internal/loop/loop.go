// Package loop runs a simulation host and a viewer in one process.
package loop

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	appconfig "github.com/tomz197/broadphase/internal/config"
	"github.com/tomz197/broadphase/internal/draw"
	"github.com/tomz197/broadphase/internal/loop/client"
	"github.com/tomz197/broadphase/internal/loop/server"
	"github.com/tomz197/broadphase/internal/sim"
)

// Options configures a local run.
type Options struct {
	Logger       *log.Logger
	TermSizeFunc draw.TermSizeFunc
	Renderer     *lipgloss.Renderer
}

// Run starts a host for cfg in the background and a viewer on r/w in the
// foreground. It returns when the viewer quits or ctx is cancelled.
func Run(ctx context.Context, cfg appconfig.Config, r *bufio.Reader, w io.Writer, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	simulation, err := sim.New(cfg, sim.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create simulation: %w", err)
	}
	host := server.NewServer(simulation, server.WithLogger(logger))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go host.Run(ctx)

	c := client.NewClient(host, r, w, client.ClientOptions{
		TermSizeFunc: opts.TermSizeFunc,
		Renderer:     opts.Renderer,
	})

	// A cancelled context shuts the viewer down like a server restart would.
	go func() {
		<-ctx.Done()
		host.Shutdown(0)
	}()

	return c.Run()
}
