package display

import (
	"fmt"
	"io"
	"sync"
)

// Printer is a two-line text display.
type Printer interface {
	// Width returns the number of characters per line.
	Width() int

	// Print shows text on line 0 or 1. Text is already Width runes wide.
	// Repeating the current text of a line is a no-op.
	Print(line int, text string)

	// SaveScreen puts the display into a power-saving state until the
	// next change.
	SaveScreen()
}

// ConsolePrinter draws the display on a terminal.
//
// In place mode redraws two lines with ANSI cursor movement. Otherwise
// every change is logged as "[line]text".
type ConsolePrinter struct {
	out     io.Writer
	width   int
	inPlace bool

	mu    sync.Mutex
	lines [2]string
	drawn bool
	saved bool
}

// NewConsolePrinter creates a printer writing to out.
func NewConsolePrinter(out io.Writer, width int, inPlace bool) *ConsolePrinter {
	return &ConsolePrinter{out: out, width: width, inPlace: inPlace}
}

// Width implements Printer.
func (p *ConsolePrinter) Width() int {
	return p.width
}

// Print implements Printer.
func (p *ConsolePrinter) Print(line int, text string) {
	if line < 0 || line >= len(p.lines) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lines[line] == text && !p.saved {
		return
	}
	p.lines[line] = text
	p.saved = false

	if !p.inPlace {
		fmt.Fprintf(p.out, "[%d]%s\n", line, text)
		return
	}
	p.redraw()
}

// SaveScreen implements Printer. The console is blanked.
func (p *ConsolePrinter) SaveScreen() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.saved {
		return
	}
	p.saved = true
	p.lines = [2]string{}

	if !p.inPlace {
		fmt.Fprintln(p.out, "[screensaver]")
		return
	}
	p.redraw()
}

// redraw writes both lines framed in a box, moving the cursor back over
// the previous frame first.
func (p *ConsolePrinter) redraw() {
	if p.drawn {
		fmt.Fprint(p.out, "\x1b[2F")
	}
	for _, l := range p.lines {
		fmt.Fprintf(p.out, "\x1b[2K|%s|\n", Fit(l, p.width))
	}
	p.drawn = true
}
