//go:build !hdf5

package record

import (
	"errors"

	"github.com/tomz197/broadphase/internal/config"
)

// HDF5Available reports whether this build can write HDF5 files.
const HDF5Available = false

// ErrNoHDF5 is returned by CreateHDF5 in builds without the hdf5 tag.
var ErrNoHDF5 = errors.New("hdf5 support not built in; rebuild with -tags hdf5")

func CreateHDF5(path string, cfg config.Config, n, steps int) (Recorder, error) {
	return nil, ErrNoHDF5
}
