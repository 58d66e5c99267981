//go:build hdf5

package record

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"gonum.org/v1/hdf5"

	"github.com/tomz197/broadphase/internal/config"
	"github.com/tomz197/broadphase/internal/sim"
)

// HDF5Available reports whether this build can write HDF5 files.
const HDF5Available = true

// statsRow is the on-disk layout of sim.Stats, with fixed-size fields.
type statsRow struct {
	Tick       uint64 `hdf5:"tick"`
	Candidates int64  `hdf5:"candidates"`
	Checks     int64  `hdf5:"checks"`
	Contacts   int64  `hdf5:"contacts"`
	DurationNS int64  `hdf5:"duration_ns"`
}

// HDF5 writes a [steps x bodies] "bodies" dataset and a [steps] "stats"
// dataset. The body count must stay fixed for the whole recording.
type HDF5 struct {
	file   *hdf5.File
	bodies *dataset
	stats  *dataset
	n      int
	steps  int
	next   int
}

// CreateHDF5 creates the file at path sized for steps frames of n bodies.
func CreateHDF5(path string, cfg config.Config, n, steps int) (Recorder, error) {
	if n < 1 || steps < 1 {
		return nil, fmt.Errorf("hdf5 recording needs at least one body and one step, got %d and %d", n, steps)
	}

	file, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, err
	}

	if err := saveConfig(file, cfg); err != nil {
		file.Close()
		return nil, fmt.Errorf("save config: %w", err)
	}

	bodies, err := newDataset(file, "bodies", sim.BodyState{}, []uint{uint(steps), uint(n)})
	if err != nil {
		file.Close()
		return nil, err
	}
	stats, err := newDataset(file, "stats", statsRow{}, []uint{uint(steps)})
	if err != nil {
		bodies.Close()
		file.Close()
		return nil, err
	}

	return &HDF5{file: file, bodies: bodies, stats: stats, n: n, steps: steps}, nil
}

func (h *HDF5) Record(snap *sim.Snapshot) error {
	if h.next >= h.steps {
		return ErrFull
	}
	if len(snap.Bodies) != h.n {
		return fmt.Errorf("%w: want %d, got %d", ErrShapeChanged, h.n, len(snap.Bodies))
	}

	row := statsRow{
		Tick:       snap.Stats.Tick,
		Candidates: int64(snap.Stats.Candidates),
		Checks:     int64(snap.Stats.Checks),
		Contacts:   int64(snap.Stats.Contacts),
		DurationNS: int64(snap.Stats.Duration),
	}

	if err := h.bodies.write(uint(h.next), &snap.Bodies); err != nil {
		return err
	}
	if err := h.stats.write(uint(h.next), &row); err != nil {
		return err
	}
	h.next++
	return nil
}

func (h *HDF5) Close() error {
	var err error
	checkClose(&err, h.stats)
	checkClose(&err, h.bodies)
	checkClose(&err, h.file)
	return err
}

// dataset is an HDF5 dataset written one leading-axis row at a time.
type dataset struct {
	dset      *hdf5.Dataset
	fileSpace *hdf5.Dataspace
	memSpace  *hdf5.Dataspace
}

func newDataset(file *hdf5.File, name string, valOfType any, dims []uint) (d *dataset, err error) {
	dtype, err := hdf5.NewDatatypeFromValue(valOfType)
	if err != nil {
		return nil, err
	}
	defer checkClose(&err, dtype)

	d = new(dataset)
	d.fileSpace, err = hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return nil, err
	}

	start := make([]uint, len(dims))
	count := make([]uint, len(dims))
	copy(count, dims)
	count[0] = 1
	if err := d.fileSpace.SelectHyperslab(start, nil, count, nil); err != nil {
		d.fileSpace.Close()
		return nil, err
	}

	if len(dims) == 1 {
		d.memSpace, err = hdf5.CreateDataspace(hdf5.S_SCALAR)
	} else {
		d.memSpace, err = hdf5.CreateSimpleDataspace(count[1:], nil)
	}
	if err != nil {
		d.fileSpace.Close()
		return nil, err
	}

	d.dset, err = file.CreateDataset(name, dtype, d.fileSpace)
	if err != nil {
		d.memSpace.Close()
		d.fileSpace.Close()
		return nil, err
	}
	return d, nil
}

func (d *dataset) write(row uint, data any) error {
	offset := make([]uint, d.fileSpace.SimpleExtentNDims())
	offset[0] = row
	if err := d.fileSpace.SetOffset(offset); err != nil {
		return err
	}
	return d.dset.WriteSubset(data, d.memSpace, d.fileSpace)
}

func (d *dataset) Close() error {
	var err error
	checkClose(&err, d.dset)
	checkClose(&err, d.memSpace)
	checkClose(&err, d.fileSpace)
	return err
}

// saveConfig creates a "config" dataset with a null dataspace whose
// attributes hold every config field under its TOML name.
func saveConfig(file *hdf5.File, cfg config.Config) (err error) {
	null, err := hdf5.CreateDataspace(hdf5.S_NULL)
	if err != nil {
		return err
	}
	defer checkClose(&err, null)

	anytype, err := hdf5.NewDatatypeFromValue(int64(0))
	if err != nil {
		return err
	}
	defer checkClose(&err, anytype)

	dset, err := file.CreateDataset("config", anytype, null)
	if err != nil {
		return err
	}
	defer checkClose(&err, dset)

	scalar, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return err
	}
	defer checkClose(&err, scalar)

	writeAttr := func(name string, value any) error {
		dtype, err := hdf5.NewDatatypeFromValue(reflect.ValueOf(value).Elem().Interface())
		if err != nil {
			return err
		}
		defer dtype.Close()

		attr, err := dset.CreateAttribute(name, dtype, scalar)
		if err != nil {
			return err
		}
		defer attr.Close()
		return attr.Write(value, dtype)
	}

	created := time.Now().UTC().Format(time.RFC3339)
	if err := writeAttr("created", &created); err != nil {
		return err
	}

	v := reflect.ValueOf(cfg)
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ",")
		if name == "" {
			name = t.Field(i).Name
		}

		var value any
		switch f := v.Field(i); f.Kind() {
		case reflect.Int, reflect.Int64:
			n := f.Int()
			value = &n
		case reflect.Float64:
			x := f.Float()
			value = &x
		case reflect.String:
			s := f.String()
			value = &s
		default:
			continue
		}
		if err := writeAttr(name, value); err != nil {
			return fmt.Errorf("attribute %s: %w", name, err)
		}
	}
	return nil
}

// checkClose closes c and keeps the first error.
func checkClose(err *error, c io.Closer) {
	if cerr := c.Close(); *err == nil {
		*err = cerr
	}
}
