// Package display renders controller status on a two-line character display.
// Rendering technology sits behind Presenter; Console draws the frame as text.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sweeney/enviro-monitor/internal/logic"
)

// Columns and Rows match a 16x2 character LCD.
const (
	Columns = 16
	Rows    = 2
)

// IndicatorColumn is where the upload indicator glyph is drawn on line 2.
const IndicatorColumn = Columns - 1

// Presenter is the local display capability.
type Presenter interface {
	// Present clears the display and shows two lines.
	Present(line1, line2 string) error

	// Mark draws a single glyph on line 2 without clearing.
	Mark(col int, ch byte) error
}

// ReadingLines formats a valid reading: "T:31.0C H:40.0%" / "Light: 600".
func ReadingLines(r logic.SensorReading) (string, string) {
	return fmt.Sprintf("T:%.1fC H:%.1f%%", r.Temperature, r.Humidity),
		fmt.Sprintf("Light: %d", r.LightLevel)
}

// ErrorLines is shown when the sensor read fails.
func ErrorLines() (string, string) {
	return "Sensor Error!", "No data sent"
}

// Console renders frames as text to a writer, one frame per change.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	lines [Rows][]byte
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer) *Console {
	c := &Console{w: w}
	c.clear()
	return c
}

func (c *Console) clear() {
	for i := range c.lines {
		c.lines[i] = []byte(strings.Repeat(" ", Columns))
	}
}

// Present clears the frame, writes both lines (truncated) and renders.
func (c *Console) Present(line1, line2 string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clear()
	copy(c.lines[0], fit(line1))
	copy(c.lines[1], fit(line2))
	return c.render()
}

// Mark draws ch at col on line 2 and renders.
func (c *Console) Mark(col int, ch byte) error {
	if col < 0 || col >= Columns {
		return fmt.Errorf("column %d out of range", col)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines[1][col] = ch
	return c.render()
}

// Lines returns the current frame.
func (c *Console) Lines() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.lines[0]), string(c.lines[1])
}

func (c *Console) render() error {
	_, err := fmt.Fprintf(c.w, "+%s+\n|%s|\n|%s|\n+%s+\n",
		strings.Repeat("-", Columns), c.lines[0], c.lines[1], strings.Repeat("-", Columns))
	return err
}

func fit(s string) string {
	if len(s) > Columns {
		return s[:Columns]
	}
	return s
}
