package display

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// volumeFlashTicks is how long a volume change stays on line 2.
const volumeFlashTicks = 3

const (
	stopSymbol  = "\u2b1b" // ⬛
	playSymbol  = "\u25b6" // ▶
	pauseSymbol = "]["
)

// Writer formats RenderInfo into two lines on a Printer.
type Writer struct {
	printer Printer

	first  *Scroller
	second *Scroller

	blink           int
	volumeCountdown int
	previousVolume  string
	volumeSeen      bool
}

// NewWriter creates a Writer drawing on printer.
func NewWriter(printer Printer) *Writer {
	return &Writer{
		printer: printer,
		first:   NewScroller(),
		second:  NewScroller(),
	}
}

// OnStart implements Subscriber.
func (w *Writer) OnStart() {}

// OnSaveScreen implements Subscriber.
func (w *Writer) OnSaveScreen() {
	w.printer.SaveScreen()
}

// OnExit implements Subscriber. It shows a goodbye screen.
func (w *Writer) OnExit() {
	width := w.printer.Width()
	w.printer.Print(0, CenterAlign("Goodbye!", width))
	w.printer.Print(1, CenterAlign("\u2192 \u266a\u266b\u266a\u2669 \u2190", width))
}

// OnRenderInfo implements Subscriber.
func (w *Writer) OnRenderInfo(info RenderInfo) {
	width := w.printer.Width()

	if info.IsWaitingForRenderer {
		name := info.PlayerName
		if name == "" {
			name = "any Renderer"
		}
		w.printer.Print(0, Fit("Waiting for", width))
		w.printer.Print(1, CenterAlign(name, width))
		return
	}

	// Line 1: "[composer: ]title", or the player name if there is nothing
	// to show.
	firstLine := info.Title
	if info.Composer != "" {
		firstLine = info.Composer + ": " + info.Title
	}
	noTitle := firstLine == "" && info.Album == ""
	if noTitle {
		w.printer.Print(0, CenterAlign(info.PlayerName, width))
	} else {
		w.first.SetValue(leftPadCenter(firstLine, width), width)
		w.printer.Print(0, Fit(w.first.CurrentViewport(), width))
	}

	volumeChanged := w.volumeSeen && info.Volume != w.previousVolume
	w.previousVolume = info.Volume
	w.volumeSeen = true

	if info.Muted {
		w.volumeCountdown = 0
		w.printer.Print(1, CenterAlign("[Muted]", width))
		w.first.Advance()
		return
	}

	if volumeChanged {
		w.volumeCountdown = volumeFlashTicks
	}
	if w.volumeCountdown > 0 {
		w.volumeCountdown--
		w.printer.Print(1, CenterAlign("Volume "+info.Volume, width))
		w.first.Advance()
		return
	}

	if noTitle {
		w.printer.Print(1, CenterAlign(playStateLine(info.PlayState), width))
		return
	}

	var timeText string
	if info.PlayState == Stopped {
		timeText = "  " + stopSymbol + " "
	} else {
		timeText = FormatTime(info.Time)
		if info.PlayState == Paused && w.blink%2 == 0 {
			timeText = strings.Repeat(" ", utf8.RuneCountInString(timeText))
		}
	}

	remaining := max(width-utf8.RuneCountInString(timeText)-1, 0)
	w.second.SetValue(RightAlign(albumArtist(info.Album, info.Artist, remaining), remaining), remaining)
	w.printer.Print(1, Fit(timeText+" "+w.second.CurrentViewport(), width))

	w.blink++
	w.first.Advance()
	w.second.Advance()
}

// albumArtist joins album and artist for line 2. The artist is left out
// when it repeats the album, or when adding it would start a scroll that
// the album alone does not need.
func albumArtist(album, artist string, width int) string {
	if artist == "" || artist == album {
		return album
	}
	if album == "" {
		return artist
	}
	joined := album + "/" + artist
	if utf8.RuneCountInString(joined) <= width || utf8.RuneCountInString(album) > width {
		return joined
	}
	return album
}

func playStateLine(state PlayState) string {
	switch state {
	case Playing:
		return playSymbol + " [Playing]"
	case Paused:
		return pauseSymbol + " [Paused]"
	default:
		return stopSymbol + " [Stopped]"
	}
}

// FormatTime renders seconds as M:SS, or HhMM:SS from one hour.
// Negative values get a leading "-".
func FormatTime(seconds int) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%s%dh%02d:%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%s%d:%02d", sign, m, s)
}

// leftPadCenter prefixes s with half the spare width. Text wider than
// width is returned unchanged.
func leftPadCenter(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return strings.Repeat(" ", (width-n)/2) + s
	}
	return s
}

// CenterAlign centers s in width runes. Odd spare space goes on the right.
func CenterAlign(s string, width int) string {
	return Fit(leftPadCenter(s, width), width)
}

// RightAlign pads s on the left to width runes. Wider text is unchanged.
func RightAlign(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}

// Fit pads s with spaces or truncates it to exactly width runes.
func Fit(s string, width int) string {
	n := utf8.RuneCountInString(s)
	switch {
	case n == width:
		return s
	case n < width:
		return s + strings.Repeat(" ", width-n)
	default:
		return string([]rune(s)[:max(width, 0)])
	}
}
