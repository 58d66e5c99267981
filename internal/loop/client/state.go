package client

import (
	"time"

	"github.com/tomz197/broadphase/internal/input"
)

// Mode represents the current phase of a viewer.
type Mode int

const (
	ModeViewing  Mode = iota // Watching the simulation
	ModeShutdown             // Server is shutting down
)

// ClientState holds per-viewer state (input, toggles, timers).
// Each client has its own instance, managed by the Client.
type ClientState struct {
	Input         input.Input
	Mode          Mode
	ShowOutlines  bool          // Draw the active index's partition
	ShowContacts  bool          // Fill bodies that touched another body this step
	Notice        string        // Last rejected command, shown in the HUD
	Running       bool          // Client loop running
	delta         time.Duration // Frame delta time (client-side)
	noticeTimer   float64       // Seconds left to show Notice
	shutdownTimer float64       // Countdown before auto-disconnect on shutdown
	isInactive    bool          // Whether the client is in inactive warning state
	prevMode      Mode
	wasInactive   bool
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		Mode:         ModeViewing,
		Running:      true,
		ShowContacts: true,
	}
}
