package client

import (
	"bufio"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tomz197/broadphase/internal/broadphase"
	"github.com/tomz197/broadphase/internal/draw"
	"github.com/tomz197/broadphase/internal/input"
	"github.com/tomz197/broadphase/internal/loop/config"
	"github.com/tomz197/broadphase/internal/loop/server"
)

// Client handles rendering and input for a single connection.
type Client struct {
	host         server.Host
	handle       *server.ViewerHandle
	state        *ClientState
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates UI text for chunked output
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	termSizeFunc draw.TermSizeFunc
	termWidth    int
	termHeight   int
	styles       styles
}

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Username     string
	// Renderer styles the HUD. Defaults to a renderer bound to the client's writer.
	Renderer *lipgloss.Renderer
}

// NewClient creates a new client connected to the given host.
func NewClient(host server.Host, r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = lipgloss.NewRenderer(w)
	}

	username := opts.Username
	if len(username) > config.MaxUsernameLength {
		username = username[:config.MaxUsernameLength]
	}

	// The canvas maps the whole world; its size follows the terminal
	world := host.Frame().Sim.World
	termWidth, termHeight, _ := draw.TerminalSizeRawWith(termSizeFunc)
	renderWidth, renderHeight, offsetCol, offsetRow := fitCanvas(termWidth, termHeight, world.Width, world.Height)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, world.Width, world.Height)
	canvas.SetOffset(offsetCol, offsetRow)

	return &Client{
		host:         host,
		handle:       host.RegisterViewer(username),
		state:        NewClientState(),
		canvas:       canvas,
		chunkWriter:  draw.NewChunkWriter(w, 0, 0),
		writer:       w,
		lastInput:    time.Now(),
		inputStream:  input.StartStream(r),
		termSizeFunc: termSizeFunc,
		termWidth:    termWidth,
		termHeight:   termHeight,
		styles:       newStyles(renderer),
	}
}

// Run starts the client loop. Blocks until the viewer quits or the server stops.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	defer draw.ShowCursor(c.writer)
	draw.ClearScreen(c.writer)

	lastTime := time.Now()

	for c.state.Running {
		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		c.processInput()
		c.processServerEvents()
		c.updateScreen()
		c.updateTimers()

		if err := c.drawFrame(); err != nil {
			c.host.UnregisterViewer(c.handle.ID)
			return err
		}

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	c.host.UnregisterViewer(c.handle.ID)

	draw.ClearScreen(c.writer)
	return nil
}

// processInput reads input and forwards control actions to the host.
func (c *Client) processInput() {
	c.state.Input = input.ReadInput(c.inputStream)

	if len(c.state.Input.Pressed) > 0 {
		c.lastInput = time.Now()
		c.state.isInactive = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityDisconnectUser {
		c.state.Running = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	if c.state.Input.Quit {
		c.state.Running = false
	}

	if c.state.Mode != ModeViewing {
		return
	}

	for _, a := range c.state.Input.Actions {
		switch a.Type {
		case input.ActionToggleOutline:
			c.state.ShowOutlines = !c.state.ShowOutlines
			c.handle.SetOutlines(c.state.ShowOutlines)
			continue
		case input.ActionToggleContacts:
			c.state.ShowContacts = !c.state.ShowContacts
			continue
		}
		if cmd, ok := commandFor(a, c.handle.ID); ok {
			c.host.Send(cmd)
		}
	}
}

// commandFor maps a control action to a host command. Actions that only
// affect the local view, or select a variant that does not exist, map to nothing.
func commandFor(a input.Action, viewerID int) (server.Command, bool) {
	cmd := server.Command{ViewerID: viewerID}

	switch a.Type {
	case input.ActionSelect:
		if a.Index < 0 || a.Index >= len(broadphase.Kinds) {
			return cmd, false
		}
		cmd.Type = server.CmdSetBroadphase
		cmd.Kind = broadphase.Kinds[a.Index]
	case input.ActionMoreBodies:
		cmd.Type = server.CmdAdjustBodyCount
		cmd.Delta = config.BodyCountStep
	case input.ActionFewerBodies:
		cmd.Type = server.CmdAdjustBodyCount
		cmd.Delta = -config.BodyCountStep
	case input.ActionGrowRadius:
		cmd.Type = server.CmdAdjustRadius
		cmd.Delta = config.RadiusStep
	case input.ActionShrinkRadius:
		cmd.Type = server.CmdAdjustRadius
		cmd.Delta = -config.RadiusStep
	case input.ActionReset:
		cmd.Type = server.CmdReset
	default:
		return cmd, false
	}

	return cmd, true
}

// processServerEvents handles events from the host.
func (c *Client) processServerEvents() {
	for {
		select {
		case event, ok := <-c.handle.EventsCh:
			if !ok {
				// Host closed the channel
				c.state.Running = false
				return
			}
			switch event.Type {
			case server.EventCommandRejected:
				c.state.Notice = event.Err.Error()
				c.state.noticeTimer = config.NoticeDisplaySeconds
			case server.EventServerShutdown:
				c.state.Mode = ModeShutdown
				c.state.shutdownTimer = config.ShutdownDisplaySeconds
			}
		default:
			return
		}
	}
}

// updateScreen handles terminal resize. On actual size changes, clears the
// terminal to remove residual pixels outside the new canvas area.
func (c *Client) updateScreen() {
	termWidth, termHeight, err := draw.TerminalSizeRawWith(c.termSizeFunc)
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := fitCanvas(termWidth, termHeight, c.canvas.LogicalWidth(), c.canvas.LogicalHeight())

	if termWidth != c.termWidth || termHeight != c.termHeight {
		draw.ClearScreen(c.writer)
		c.termWidth = termWidth
		c.termHeight = termHeight
	}

	c.canvas.Resize(renderWidth, renderHeight)
	c.canvas.SetOffset(offsetCol, offsetRow)
}

// updateTimers counts down the notice and shutdown timers.
func (c *Client) updateTimers() {
	dt := c.state.delta.Seconds()

	if c.state.noticeTimer > 0 {
		c.state.noticeTimer -= dt
		if c.state.noticeTimer <= 0 {
			c.state.Notice = ""
		}
	}

	if c.state.Mode == ModeShutdown {
		c.state.shutdownTimer -= dt
		if c.state.shutdownTimer <= 0 {
			c.state.Running = false
		}
	}
}

// fitCanvas sizes the render area for a world of worldW x worldH so the
// world keeps its aspect ratio (each terminal row holds two pixels). The
// area is clamped to the max render resolution, leaves one row for each HUD
// line and one cell of border on every side, and is centred in the terminal.
func fitCanvas(termWidth, termHeight int, worldW, worldH float64) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	availW := min(termWidth-2, config.MaxTermWidth)
	availH := min(termHeight-config.HUDTopRows-config.HUDBottomRows-2, config.MaxTermHeight)
	availW = max(availW, 1)
	availH = max(availH, 1)

	renderWidth = availW
	renderHeight = int(float64(renderWidth) * worldH / worldW / 2)
	if renderHeight > availH {
		renderHeight = availH
		renderWidth = int(float64(renderHeight*2) * worldW / worldH)
	}
	renderWidth = max(renderWidth, 1)
	renderHeight = max(renderHeight, 1)

	offsetCol = max((termWidth-renderWidth)/2, 0)
	offsetRow = config.HUDTopRows + 1 + max((termHeight-config.HUDTopRows-config.HUDBottomRows-2-renderHeight)/2, 0)
	return
}
