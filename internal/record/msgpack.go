package record

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tomz197/broadphase/internal/config"
	"github.com/tomz197/broadphase/internal/sim"
)

const (
	msgpackFormat  = "broadphase/msgpack"
	msgpackVersion = 1
)

// Msgpack streams a header followed by one msgpack value per snapshot.
// Structs without msgpack tags, such as the config, fall back to their
// TOML names so a recording reads like the file that produced it.
type Msgpack struct {
	buf    *bufio.Writer
	enc    *msgpack.Encoder
	closer io.Closer
}

// NewMsgpack writes the header for cfg to w and returns the recorder.
func NewMsgpack(w io.Writer, cfg config.Config) (*Msgpack, error) {
	buf := bufio.NewWriter(w)
	enc := msgpack.NewEncoder(buf)
	enc.SetCustomStructTag("toml")

	h := Header{
		Format:  msgpackFormat,
		Version: msgpackVersion,
		Created: time.Now().UTC(),
		Config:  cfg,
	}
	if err := enc.Encode(&h); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Msgpack{buf: buf, enc: enc}, nil
}

func (m *Msgpack) Record(snap *sim.Snapshot) error {
	return m.enc.Encode(snap)
}

// Close flushes buffered frames and closes the file opened by Open.
func (m *Msgpack) Close() error {
	err := m.buf.Flush()
	if m.closer != nil {
		if cerr := m.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// MsgpackReader reads back a stream written by Msgpack.
type MsgpackReader struct {
	Header Header
	dec    *msgpack.Decoder
}

// NewMsgpackReader reads and checks the header.
func NewMsgpackReader(r io.Reader) (*MsgpackReader, error) {
	dec := msgpack.NewDecoder(bufio.NewReader(r))
	dec.SetCustomStructTag("toml")

	mr := &MsgpackReader{dec: dec}
	if err := dec.Decode(&mr.Header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if mr.Header.Format != msgpackFormat {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, mr.Header.Format)
	}
	return mr, nil
}

// Next returns the next snapshot, or io.EOF after the last one.
func (r *MsgpackReader) Next() (*sim.Snapshot, error) {
	var snap sim.Snapshot
	if err := r.dec.Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ReadMsgpack reads a whole stream.
func ReadMsgpack(r io.Reader) (Header, []*sim.Snapshot, error) {
	mr, err := NewMsgpackReader(r)
	if err != nil {
		return Header{}, nil, err
	}

	var frames []*sim.Snapshot
	for {
		snap, err := mr.Next()
		if errors.Is(err, io.EOF) {
			return mr.Header, frames, nil
		}
		if err != nil {
			return mr.Header, frames, fmt.Errorf("read frame %d: %w", len(frames), err)
		}
		frames = append(frames, snap)
	}
}
