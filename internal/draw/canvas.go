package draw

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Canvas maps world coordinates onto a grid of terminal cells. Each cell
// holds two vertically stacked pixels drawn with half-block runes.
type Canvas struct {
	cols, rows int    // terminal cells
	height     int    // pixel rows, always 2*rows
	pixels     []bool // row-major, cols*height

	worldW, worldH float64
	sx, sy         float64 // pixels per world unit

	// 0-based cell offset of the top-left corner on screen.
	offsetCol, offsetRow int

	out strings.Builder
}

// NewCanvas creates an unscaled canvas: one world unit per pixel.
func NewCanvas(cols, rows int) *Canvas {
	return NewScaledCanvas(cols, rows, float64(cols), float64(rows*2))
}

// NewScaledCanvas creates a canvas of cols x rows cells showing a world of
// worldW x worldH units.
func NewScaledCanvas(cols, rows int, worldW, worldH float64) *Canvas {
	c := &Canvas{worldW: worldW, worldH: worldH}
	c.Resize(cols, rows)
	return c
}

// Resize changes the cell grid and rescales; the world size stays fixed.
func (c *Canvas) Resize(cols, rows int) {
	if cols != c.cols || rows != c.rows || c.pixels == nil {
		c.cols, c.rows, c.height = cols, rows, rows*2
		c.pixels = make([]bool, cols*c.height)
	}
	c.sx = float64(c.cols) / c.worldW
	c.sy = float64(c.height) / c.worldH
}

// SetOffset places the canvas on screen. The first cell is drawn at
// column col+1, row row+1.
func (c *Canvas) SetOffset(col, row int) {
	c.offsetCol, c.offsetRow = col, row
}

// Clear turns every pixel off.
func (c *Canvas) Clear() {
	clear(c.pixels)
}

// plot sets a pixel; coordinates outside the canvas are ignored.
func (c *Canvas) plot(x, y int) {
	if x < 0 || x >= c.cols || y < 0 || y >= c.height {
		return
	}
	c.pixels[y*c.cols+x] = true
}

// toPixel converts a world position to the nearest pixel.
func (c *Canvas) toPixel(x, y float64) (int, int) {
	return int(math.Round(x * c.sx)), int(math.Round(y * c.sy))
}

// SetFloat sets the pixel nearest to the world point (x, y).
func (c *Canvas) SetFloat(x, y float64) {
	c.plot(c.toPixel(x, y))
}

// DrawLine draws a segment between two world points.
func (c *Canvas) DrawLine(p1, p2 Point) {
	x0, y0 := c.toPixel(p1.X, p1.Y)
	x1, y1 := c.toPixel(p2.X, p2.Y)

	dx, dy := abs(x1-x0), -abs(y1-y0)
	stepX, stepY := 1, 1
	if x0 > x1 {
		stepX = -1
	}
	if y0 > y1 {
		stepY = -1
	}

	e := dx + dy
	for {
		c.plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += stepX
		}
		if e2 <= dx {
			e += dx
			y0 += stepY
		}
	}
}

// DrawCircle draws a circle of world radius r. The outline is a polygon
// whose vertex count grows with the on-screen size; filled circles also get
// their interior painted one pixel row at a time. Circles smaller than a
// pixel become a single dot.
func (c *Canvas) DrawCircle(cx, cy, r float64, filled bool) {
	rx, ry := r*c.sx, r*c.sy
	if max(rx, ry) < 1 {
		c.SetFloat(cx, cy)
		return
	}

	if filled {
		c.fillEllipse(cx*c.sx, cy*c.sy, rx, ry)
	}

	n := min(max(int(math.Pi*max(rx, ry)), 8), 64)
	prev := Point{X: cx + r, Y: cy}
	for i := 1; i <= n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		next := Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
		c.DrawLine(prev, next)
		prev = next
	}
}

// fillEllipse paints every pixel inside the ellipse, given in pixel space.
func (c *Canvas) fillEllipse(px, py, rx, ry float64) {
	top := max(int(math.Ceil(py-ry)), 0)
	bottom := min(int(math.Floor(py+ry)), c.height-1)
	for y := top; y <= bottom; y++ {
		dy := (float64(y) - py) / ry
		if dy*dy > 1 {
			continue
		}
		half := rx * math.Sqrt(1-dy*dy)
		from := max(int(math.Ceil(px-half)), 0)
		to := min(int(math.Floor(px+half)), c.cols-1)
		for x := from; x <= to; x++ {
			c.pixels[y*c.cols+x] = true
		}
	}
}

// DrawRect draws the outline of an axis-aligned rectangle.
func (c *Canvas) DrawRect(minX, minY, maxX, maxY float64) {
	corners := [4]Point{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}}
	for i, p := range corners {
		c.DrawLine(p, corners[(i+1)%4])
	}
}

// Render writes every cell, row by row, so a frame fully replaces the
// previous one without clearing the screen.
func (c *Canvas) Render(w io.Writer) {
	c.out.Reset()
	c.out.Grow(c.rows * (c.cols*3 + 12))

	for row := 0; row < c.rows; row++ {
		upper := c.pixels[2*row*c.cols:]
		lower := c.pixels[(2*row+1)*c.cols:]

		fmt.Fprintf(&c.out, "\033[%d;%dH", c.offsetRow+row+1, c.offsetCol+1)
		for col := 0; col < c.cols; col++ {
			switch u, l := upper[col], lower[col]; {
			case u && l:
				c.out.WriteRune(BlockFull)
			case u:
				c.out.WriteRune(BlockUpperHalf)
			case l:
				c.out.WriteRune(BlockLowerHalf)
			default:
				c.out.WriteByte(BlockEmpty)
			}
		}
	}

	io.WriteString(w, c.out.String())
}

// RenderBorder frames the canvas with box-drawing runes. Horizontal edges
// need a free row above the canvas and vertical edges a free column to its
// left; corners are drawn only when both exist.
func (c *Canvas) RenderBorder(w io.Writer) {
	left, right := c.offsetCol, c.offsetCol+c.cols+1
	top, bottom := c.offsetRow, c.offsetRow+c.rows+1
	sides, edges := left >= 1, top >= 1

	var b strings.Builder
	if edges {
		line := strings.Repeat("─", c.cols)
		if sides {
			fmt.Fprintf(&b, "\033[%d;%dH┌%s┐\033[%d;%dH└%s┘", top, left, line, bottom, left, line)
		} else {
			fmt.Fprintf(&b, "\033[%d;%dH%s\033[%d;%dH%s", top, left+1, line, bottom, left+1, line)
		}
	}
	if sides {
		for row := top + 1; row < bottom; row++ {
			fmt.Fprintf(&b, "\033[%d;%dH│\033[%d;%dH│", row, left, row, right)
		}
	}
	io.WriteString(w, b.String())
}

// LogicalWidth returns the world width the canvas shows.
func (c *Canvas) LogicalWidth() float64 {
	return c.worldW
}

// LogicalHeight returns the world height the canvas shows.
func (c *Canvas) LogicalHeight() float64 {
	return c.worldH
}
