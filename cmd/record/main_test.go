package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tomz197/broadphase/internal/config"
	"github.com/tomz197/broadphase/internal/record"
	"github.com/tomz197/broadphase/internal/sim"
)

func TestRunRecordsEveryNthStep(t *testing.T) {
	cfg := config.Default()
	cfg.BodyCount = 25
	cfg.Seed = 2

	s, err := sim.New(cfg, sim.WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	rec, err := record.NewMsgpack(&buf, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := run(s, rec, 10, 3, 1.0/60); err != nil {
		t.Fatalf("run: %v", err)
	}
	rec.Close()

	_, frames, err := record.ReadMsgpack(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	for i, f := range frames {
		if want := uint64(3 * (i + 1)); f.Tick != want {
			t.Errorf("frame %d: expected tick %d, got %d", i, want, f.Tick)
		}
		if len(f.Bodies) != 25 {
			t.Errorf("frame %d: expected 25 bodies, got %d", i, len(f.Bodies))
		}
	}
}
