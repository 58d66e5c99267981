package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tomz197/broadphase/internal/loop/config"
	"github.com/tomz197/broadphase/internal/loop/server"
	"github.com/tomz197/broadphase/internal/sim"
)

const controlsHelp = "1-6 variant  +/- bodies  [/] radius  b outlines  c contacts  r reset  q quit"

// styles holds the HUD styles of one viewer. Styles are bound to the
// viewer's renderer so each SSH session gets its own color profile.
type styles struct {
	variant lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	help    lipgloss.Style
	notice  lipgloss.Style
	title   lipgloss.Style
	line    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		variant: r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		label:   r.NewStyle().Faint(true),
		value:   r.NewStyle().Bold(true),
		help:    r.NewStyle().Faint(true),
		notice:  r.NewStyle().Foreground(lipgloss.Color("9")),
		title:   r.NewStyle().Bold(true).Reverse(true).Padding(0, 1),
		line:    r.NewStyle().Inline(true),
	}
}

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	// On mode or inactivity transitions, do a full terminal clear
	// so UI elements from the previous state don't persist on screen.
	if c.state.Mode != c.state.prevMode || c.state.isInactive != c.state.wasInactive {
		c.chunkWriter.WriteString("\033[H\033[2J")
		c.state.prevMode = c.state.Mode
		c.state.wasInactive = c.state.isInactive
	}

	frame := c.host.Frame()
	c.canvas.Clear()

	if c.state.ShowOutlines {
		for _, b := range frame.Sim.Outlines {
			c.canvas.DrawRect(b.MinX, b.MinY, b.MaxX, b.MaxY)
		}
	}
	c.drawBodies(frame.Sim.Bodies)

	// Render canvas and its border to terminal
	c.canvas.Render(c.chunkWriter)
	c.canvas.RenderBorder(c.chunkWriter)

	c.drawHUD(frame)

	centerX := c.termWidth / 2
	centerY := c.termHeight / 2
	switch {
	case c.state.Mode == ModeShutdown:
		c.drawShutdownScreen(centerX, centerY)
	case c.state.isInactive:
		c.drawInactivityScreen(centerX, centerY)
	}

	return c.chunkWriter.Flush()
}

// drawHUD draws the status line above the canvas and the help line below it.
// Both lines are padded to the terminal width so shrinking values don't
// leave residual characters on screen.
func (c *Client) drawHUD(frame *server.Frame) {
	st := c.styles
	stats := frame.Sim.Stats
	width := max(c.termWidth, 1)

	field := func(label string, value any) string {
		return st.label.Render(label) + " " + st.value.Render(fmt.Sprint(value))
	}
	top := strings.Join([]string{
		st.variant.Render(frame.Sim.Kind.DisplayName()),
		field("bodies", len(frame.Sim.Bodies)),
		field("radius", frame.Radius),
		field("checks", stats.Checks),
		field("contacts", stats.Contacts),
		field("step", stats.Duration.Round(time.Microsecond)),
		field("viewers", frame.Viewers),
	}, "  ")

	bottom := st.help.Render(controlsHelp)
	if c.state.Notice != "" {
		bottom = st.notice.Render(c.state.Notice)
	}
	if c.state.ShowOutlines && len(frame.Sim.Outlines) == 0 {
		bottom = st.help.Render(frame.Sim.Kind.DisplayName() + " has no partition to draw")
	}

	line := st.line.Width(width).MaxWidth(width)
	c.chunkWriter.WriteAt(1, 1, line.Render(top))
	c.chunkWriter.WriteAt(1, max(c.termHeight, 1), line.Render(bottom))
}

// drawBodies outlines every body. Bodies in contact are filled unless the
// viewer turned that off.
func (c *Client) drawBodies(bodies []sim.BodyState) {
	for _, b := range bodies {
		c.canvas.DrawCircle(b.X, b.Y, b.Radius, c.state.ShowContacts && b.Contacts > 0)
	}
}

// writeCentered writes each line centred on centerX, starting at row.
func (c *Client) writeCentered(centerX, row int, lines ...string) {
	for i, l := range lines {
		c.chunkWriter.WriteAt(max(centerX-lipgloss.Width(l)/2, 1), row+i, l)
	}
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerX, centerY int) {
	title := c.styles.title.Render("INACTIVITY WARNING")
	msg := fmt.Sprintf(
		"You have been inactive for too long. You will be disconnected in %d seconds.",
		int(config.InactivityDisconnectUser-time.Since(c.lastInput).Seconds()),
	)
	c.writeCentered(centerX, centerY-2, title, "", msg, "", "Press any key to continue")
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen(centerX, centerY int) {
	remaining := int(c.state.shutdownTimer) + 1
	c.writeCentered(centerX, centerY-3,
		c.styles.title.Render("SERVER SHUTTING DOWN"),
		"",
		"The server is restarting for maintenance.",
		"Please reconnect in a moment.",
		"",
		fmt.Sprintf("Disconnecting in %d seconds...", remaining),
		"",
		"Press Q to disconnect now",
	)
}
