// Package record writes simulation snapshots to disk for offline analysis.
package record

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tomz197/broadphase/internal/config"
	"github.com/tomz197/broadphase/internal/sim"
)

var (
	ErrUnknownFormat = errors.New("unknown recording format")
	ErrShapeChanged  = errors.New("body count changed during recording")
	ErrFull          = errors.New("recording is full")
)

// Recorder receives one snapshot per recorded step.
type Recorder interface {
	Record(snap *sim.Snapshot) error
	Close() error
}

// Header describes a recording. It is written once before any frame.
type Header struct {
	Format  string        `msgpack:"format"`
	Version int           `msgpack:"version"`
	Created time.Time     `msgpack:"created"`
	Config  config.Config `msgpack:"config"`
}

// Open creates a recorder for path, choosing the format by extension:
// .msgpack or .mp for a msgpack stream, .h5 or .hdf5 for an HDF5 file.
// steps is the number of frames an HDF5 file is sized for.
func Open(path string, cfg config.Config, steps int) (Recorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mp":
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		rec, err := NewMsgpack(f, cfg)
		if err != nil {
			f.Close()
			return nil, err
		}
		rec.closer = f
		return rec, nil
	case ".h5", ".hdf5":
		return CreateHDF5(path, cfg, cfg.BodyCount, steps)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}
