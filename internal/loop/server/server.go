package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/broadphase/internal/broadphase"
	"github.com/tomz197/broadphase/internal/loop/config"
	"github.com/tomz197/broadphase/internal/sim"
)

// ErrUnknownCommand is reported to a viewer whose command type is not recognised.
var ErrUnknownCommand = errors.New("unknown command")

// Host is the interface viewers use to talk to the simulation host.
// Decouples the Client from the concrete Server implementation.
type Host interface {
	RegisterViewer(username string) *ViewerHandle
	UnregisterViewer(viewerID int)
	Send(cmd Command)
	Frame() *Frame
}

// Server owns one simulation and steps it on a single goroutine.
// Viewers only see published frames and talk back through commands.
type Server struct {
	sim          *sim.Simulation
	clock        *sim.Clock
	logger       *log.Logger
	frame        atomic.Pointer[Frame]
	viewers      map[int]*ViewerHandle
	nextViewerID int
	commandCh    chan Command
	registerCh   chan *ViewerHandle
	unregisterCh chan int
	mu           sync.RWMutex
}

// Compile-time check that Server implements Host.
var _ Host = (*Server)(nil)

// Frame is what viewers render: an immutable snapshot plus host level facts.
type Frame struct {
	Sim     *sim.Snapshot
	Radius  float64
	Viewers int
}

// ViewerHandle represents a viewer's connection to the server.
type ViewerHandle struct {
	ID       int
	Username string
	EventsCh chan Event // Events sent to the viewer (rejections, shutdown)
	outlines atomic.Bool
}

// SetOutlines tells the server whether this viewer draws index outlines.
// Outlines are only collected while at least one viewer wants them.
func (h *ViewerHandle) SetOutlines(on bool) {
	h.outlines.Store(on)
}

// Outlines reports whether this viewer draws index outlines.
func (h *ViewerHandle) Outlines() bool {
	return h.outlines.Load()
}

// CommandType identifies a control request.
type CommandType int

const (
	CmdSetBroadphase CommandType = iota
	CmdAdjustBodyCount
	CmdAdjustRadius
	CmdReset
)

func (t CommandType) String() string {
	switch t {
	case CmdSetBroadphase:
		return "set-broadphase"
	case CmdAdjustBodyCount:
		return "adjust-body-count"
	case CmdAdjustRadius:
		return "adjust-radius"
	case CmdReset:
		return "reset"
	}
	return "unknown"
}

// Command is a control request from a viewer, applied between ticks.
type Command struct {
	ViewerID int
	Type     CommandType
	Kind     broadphase.Kind // CmdSetBroadphase
	Delta    float64         // CmdAdjustBodyCount (bodies), CmdAdjustRadius (units)
}

// Event represents an event sent from server to viewer.
type Event struct {
	Type EventType
	Err  error // For rejected commands
}

// EventType identifies the type of viewer event.
type EventType int

const (
	EventCommandRejected EventType = iota
	EventServerShutdown
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a host for the given simulation, stepping it at the
// configured tick rate.
func NewServer(simulation *sim.Simulation, opts ...Option) *Server {
	s := &Server{
		sim:          simulation,
		clock:        sim.NewClockRate(simulation.Config().TickRate),
		logger:       log.Default(),
		viewers:      make(map[int]*ViewerHandle),
		nextViewerID: 1,
		commandCh:    make(chan Command, config.CommandBuffer),
		registerCh:   make(chan *ViewerHandle, config.RegisterBuffer),
		unregisterCh: make(chan int, config.RegisterBuffer),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.publish()
	return s
}

// Run starts the server loop. Blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) {
	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		now := time.Now()
		elapsed := now.Sub(lastTime)
		lastTime = now

		s.processRegistrations()
		changed := s.applyCommands()

		if dt, ok := s.clock.Advance(elapsed); ok {
			stats := s.sim.Step(dt)
			changed = true
			if stats.Duration > s.clock.Interval() {
				s.logger.Debug("tick overran", "tick", stats.Tick, "took", stats.Duration, "interval", s.clock.Interval())
			}
		}

		if changed {
			s.publish()
		}

		time.Sleep(s.clock.Remaining())
	}
}

// Shutdown gracefully shuts down the server by notifying all connected viewers
// and waiting for them to disconnect (up to the given timeout).
// The caller should cancel the server context after Shutdown returns.
func (s *Server) Shutdown(timeout time.Duration) {
	s.mu.RLock()
	for _, handle := range s.viewers {
		select {
		case handle.EventsCh <- Event{Type: EventServerShutdown}:
		default:
		}
	}
	s.mu.RUnlock()

	deadline := time.After(timeout)
	ticker := time.NewTicker(config.ShutdownPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return
		case <-ticker.C:
			s.mu.RLock()
			remaining := len(s.viewers)
			s.mu.RUnlock()
			if remaining == 0 {
				return
			}
		}
	}
}

// RegisterViewer registers a new viewer with the given username and returns its handle.
func (s *Server) RegisterViewer(username string) *ViewerHandle {
	s.mu.Lock()
	id := s.nextViewerID
	s.nextViewerID++
	s.mu.Unlock()

	handle := &ViewerHandle{
		ID:       id,
		Username: username,
		EventsCh: make(chan Event, config.ViewerEventBuffer),
	}

	s.registerCh <- handle
	return handle
}

// UnregisterViewer removes a viewer from the server.
func (s *Server) UnregisterViewer(viewerID int) {
	s.unregisterCh <- viewerID
}

// Send queues a command for the next tick. Commands are dropped when the
// queue is full.
func (s *Server) Send(cmd Command) {
	select {
	case s.commandCh <- cmd:
	default:
		s.logger.Debug("command dropped", "viewer", cmd.ViewerID, "command", cmd.Type)
	}
}

// Frame returns the most recently published frame.
func (s *Server) Frame() *Frame {
	return s.frame.Load()
}

// Viewers returns the number of registered viewers.
func (s *Server) Viewers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.viewers)
}

// processRegistrations handles pending viewer registrations/unregistrations.
func (s *Server) processRegistrations() {
	for {
		select {
		case handle := <-s.registerCh:
			s.mu.Lock()
			s.viewers[handle.ID] = handle
			s.mu.Unlock()
			s.logger.Debug("viewer joined", "viewer", handle.ID, "user", handle.Username)
		case viewerID := <-s.unregisterCh:
			s.mu.Lock()
			if handle, ok := s.viewers[viewerID]; ok {
				close(handle.EventsCh)
				delete(s.viewers, viewerID)
				s.logger.Debug("viewer left", "viewer", viewerID, "user", handle.Username)
			}
			s.mu.Unlock()
		default:
			return
		}
	}
}

// applyCommands drains the command queue and reports whether any command
// changed the simulation.
func (s *Server) applyCommands() bool {
	changed := false
	for {
		select {
		case cmd := <-s.commandCh:
			ok, err := s.apply(cmd)
			if err != nil {
				s.logger.Warn("command rejected", "viewer", cmd.ViewerID, "command", cmd.Type, "err", err)
				s.notify(cmd.ViewerID, Event{Type: EventCommandRejected, Err: err})
				continue
			}
			changed = changed || ok
		default:
			return changed
		}
	}
}

// apply runs one command against the simulation. Adjustments are clamped to
// the control limits; a clamped no-op reports false.
func (s *Server) apply(cmd Command) (bool, error) {
	cfg := s.sim.Config()

	switch cmd.Type {
	case CmdSetBroadphase:
		if err := s.sim.SetBroadphase(cmd.Kind); err != nil {
			return false, err
		}
		s.logger.Info("broadphase changed", "variant", cmd.Kind.DisplayName(), "viewer", cmd.ViewerID)
		return true, nil

	case CmdAdjustBodyCount:
		n := min(max(cfg.BodyCount+int(cmd.Delta), config.MinBodyCount), config.MaxBodyCount)
		if n == cfg.BodyCount {
			return false, nil
		}
		if err := s.sim.SetBodyCount(n); err != nil {
			return false, err
		}
		s.logger.Info("body count changed", "bodies", n, "viewer", cmd.ViewerID)
		return true, nil

	case CmdAdjustRadius:
		r := min(max(cfg.BodyRadius+cmd.Delta, config.MinRadius), config.MaxRadius)
		if r == cfg.BodyRadius {
			return false, nil
		}
		if err := s.sim.SetBodyRadius(r); err != nil {
			return false, err
		}
		s.logger.Info("body radius changed", "radius", r, "viewer", cmd.ViewerID)
		return true, nil

	case CmdReset:
		if err := s.sim.Reset(); err != nil {
			return false, err
		}
		s.logger.Info("simulation reset", "viewer", cmd.ViewerID)
		return true, nil
	}

	return false, ErrUnknownCommand
}

// notify sends an event to one viewer without blocking.
func (s *Server) notify(viewerID int, ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handle, ok := s.viewers[viewerID]
	if !ok {
		return
	}
	select {
	case handle.EventsCh <- ev:
	default:
	}
}

// publish stores a new immutable frame for viewers.
func (s *Server) publish() {
	s.mu.RLock()
	viewers := len(s.viewers)
	outlines := false
	for _, handle := range s.viewers {
		if handle.Outlines() {
			outlines = true
			break
		}
	}
	s.mu.RUnlock()

	s.frame.Store(&Frame{
		Sim:     s.sim.Snapshot(outlines),
		Radius:  s.sim.Config().BodyRadius,
		Viewers: viewers,
	})
}
