// Command broadphase runs the collision simulation in the local terminal.
//
// Usage:
//
//	broadphase [config_file]
//
// The optional argument is a TOML config file; BROADPHASE_* environment
// variables override it. The terminal is taken over by the viewer, so logs go
// to the file named by BROADPHASE_LOG_FILE, or nowhere.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/tomz197/broadphase/internal/config"
	"github.com/tomz197/broadphase/internal/loop"
)

const usage = `Usage: broadphase [config_file]

The first argument is optional and is the path to a TOML config file.
Keys: 1-6 variant, +/- bodies, [/] radius, b outlines, r reset, q quit.
`

func main() {
	var path string
	switch len(os.Args) {
	case 1:
	case 2:
		path = os.Args[1]
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Resolve(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logOut := io.Discard
	if logPath := config.GetEnv(config.EnvPrefix+"LOG_FILE", ""); logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := log.NewWithOptions(logOut, log.Options{
		Level:           cfg.Level(),
		ReportTimestamp: true,
	})

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "variant", cfg.Broadphase, "bodies", cfg.BodyCount, "world", fmt.Sprintf("%vx%v", cfg.WorldWidth, cfg.WorldHeight))
	reader := bufio.NewReader(os.Stdin)
	err = loop.Run(ctx, cfg, reader, os.Stdout, loop.Options{
		Logger:   logger,
		Renderer: lipgloss.NewRenderer(os.Stdout),
	})
	if err != nil {
		_ = term.Restore(fd, oldState)
		logger.Error("viewer stopped", "err", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
