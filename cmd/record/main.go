// Command record runs the simulation headless and writes every step to a
// file: a msgpack stream (.msgpack, .mp) or an HDF5 file (.h5, .hdf5, needs
// a build with -tags hdf5).
package main

import (
	"flag"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/broadphase/internal/config"
	"github.com/tomz197/broadphase/internal/record"
	"github.com/tomz197/broadphase/internal/sim"
)

var (
	configPath = flag.String("config", "", "TOML config file")
	output     = flag.String("o", "run.msgpack", "Output file; the extension picks the format")
	steps      = flag.Int("steps", 600, "Steps to record")
	every      = flag.Int("every", 1, "Record one frame every N steps")
)

func main() {
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "record",
	})

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}
	logger.SetLevel(cfg.Level())
	if *steps < 1 || *every < 1 {
		logger.Fatal("steps and every must be positive", "steps", *steps, "every", *every)
	}

	s, err := sim.New(cfg, sim.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to create simulation", "err", err)
	}

	frames := *steps / *every
	rec, err := record.Open(*output, cfg, frames)
	if err != nil {
		logger.Fatal("failed to open recording", "path", *output, "err", err)
	}

	start := time.Now()
	if err := run(s, rec, *steps, *every, 1/float64(cfg.TickRate)); err != nil {
		rec.Close()
		logger.Fatal("recording failed", "err", err)
	}
	if err := rec.Close(); err != nil {
		logger.Fatal("failed to close recording", "err", err)
	}

	logger.Info("recording written", "path", *output, "frames", frames, "steps", *steps, "took", time.Since(start).Round(time.Millisecond))
}

// run steps s and records every nth step.
func run(s *sim.Simulation, rec record.Recorder, steps, every int, dt float64) error {
	for i := 1; i <= steps; i++ {
		s.Step(dt)
		if i%every != 0 {
			continue
		}
		if err := rec.Record(s.Snapshot(false)); err != nil {
			return err
		}
	}
	return nil
}
