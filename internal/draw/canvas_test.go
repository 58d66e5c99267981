package draw

import (
	"bytes"
	"strings"
	"testing"
)

func countSet(c *Canvas) int {
	n := 0
	for _, p := range c.pixels {
		if p {
			n++
		}
	}
	return n
}

func TestCanvasScalesLogicalCoordinates(t *testing.T) {
	c := NewScaledCanvas(10, 5, 100, 100)
	c.SetFloat(50, 50)
	if !c.pixels[5*10+5] {
		t.Errorf("expected pixel (5,5) to be set for logical (50,50)")
	}
	if got := countSet(c); got != 1 {
		t.Errorf("expected 1 pixel set, got %d", got)
	}

	c.SetFloat(-1, 200)
	if got := countSet(c); got != 1 {
		t.Errorf("out of range point should be dropped, got %d pixels", got)
	}
}

func TestRenderWritesEveryCell(t *testing.T) {
	c := NewCanvas(3, 2)
	c.SetFloat(0, 0)
	c.SetFloat(1, 1)
	c.SetFloat(2, 0)
	c.SetFloat(2, 1)

	var buf bytes.Buffer
	c.Render(&buf)
	out := buf.String()

	wantRows := []string{
		"\033[1;1H" + string(BlockUpperHalf) + string(BlockLowerHalf) + string(BlockFull),
		"\033[2;1H   ",
	}
	for _, row := range wantRows {
		if !strings.Contains(out, row) {
			t.Errorf("render output %q missing row %q", out, row)
		}
	}
}

func TestRenderAppliesOffset(t *testing.T) {
	c := NewCanvas(2, 1)
	c.SetOffset(4, 3)

	var buf bytes.Buffer
	c.Render(&buf)
	if !strings.HasPrefix(buf.String(), "\033[4;5H") {
		t.Errorf("expected render to start at row 4 col 5, got %q", buf.String())
	}
}

func TestDrawCircleStaysWithinRadius(t *testing.T) {
	c := NewCanvas(40, 20)
	c.DrawCircle(20, 20, 8, false)

	if countSet(c) == 0 {
		t.Fatal("expected circle outline to set pixels")
	}
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.cols; x++ {
			if !c.pixels[y*c.cols+x] {
				continue
			}
			dx, dy := float64(x-20), float64(y-20)
			if dx*dx+dy*dy > 9*9 {
				t.Errorf("pixel (%d,%d) lies outside the circle", x, y)
			}
		}
	}
	if c.pixels[20*c.cols+20] {
		t.Errorf("outline should leave the centre empty")
	}

	c.Clear()
	c.DrawCircle(20, 20, 8, true)
	if !c.pixels[20*c.cols+20] {
		t.Errorf("filled circle should cover the centre")
	}
}

func TestDrawCircleTinyRadiusIsDot(t *testing.T) {
	c := NewScaledCanvas(10, 5, 1000, 1000)
	c.DrawCircle(500, 500, 2, false)
	if got := countSet(c); got != 1 {
		t.Errorf("expected a single dot, got %d pixels", got)
	}
}

func TestDrawRectOutline(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawRect(2, 2, 6, 6)

	for _, p := range [][2]int{{2, 2}, {6, 2}, {6, 6}, {2, 6}, {4, 2}, {2, 4}} {
		if !c.pixels[p[1]*c.cols+p[0]] {
			t.Errorf("expected edge pixel %v to be set", p)
		}
	}
	if c.pixels[4*c.cols+4] {
		t.Errorf("rect interior should stay empty")
	}
	if got := countSet(c); got != 16 {
		t.Errorf("expected 16 edge pixels, got %d", got)
	}
}

func TestChunkWriterFlushAppliesOffset(t *testing.T) {
	var buf bytes.Buffer
	cw := NewChunkWriter(&buf, 2, 1)
	cw.WriteAt(1, 1, "hi")
	if err := cw.Flush(); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "\033[2;3Hhi"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
