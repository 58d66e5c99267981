// Package config centralizes the tunables of the host and viewer loops.
package config

import "time"

// Render resolution. Terminals larger than this are centred with a border.
const (
	MaxTermWidth  = 200
	MaxTermHeight = 60
)

// HUD rows reserved above and below the canvas.
const (
	HUDTopRows    = 1
	HUDBottomRows = 1
)

// Control steps and limits for the viewer panel.
const (
	BodyCountStep = 50
	MinBodyCount  = 1
	MaxBodyCount  = 1000

	RadiusStep = 1.0
	MinRadius  = 1.0
	MaxRadius  = 20.0
)

// Viewers
const (
	MaxUsernameLength = 16
	ViewerEventBuffer = 16
	CommandBuffer     = 64
	RegisterBuffer    = 16
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
	ShutdownPollInterval   = 200 * time.Millisecond
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Client rendering
const (
	ClientTargetFPS       = 60
	ClientTargetFrameTime = time.Second / ClientTargetFPS
)

// Notices
const (
	NoticeDisplaySeconds = 3.0 // Seconds a rejected command stays in the HUD
)
