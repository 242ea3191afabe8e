package display

// scrollInterlude separates the end of scrolled text from its restart.
const scrollInterlude = "  -  "

// scrollHold is the number of ticks a scroller pauses at the start of a
// cycle and when the end of the text comes into view.
const scrollHold = 4

// Scroller shows a window of text that is too wide for the display,
// moving one character per tick.
//
// All positions are rune indices, so multi-byte characters are never split.
type Scroller struct {
	original string
	width    int

	content   []rune // original plus interlude when scrolling
	origLen   int    // rune length of original
	scrolling bool

	start int
	end   int
	wait  int
}

// NewScroller returns an empty scroller.
func NewScroller() *Scroller {
	return &Scroller{}
}

// SetValue sets the text and window width. Repeating the previous values
// keeps the scroll position.
func (s *Scroller) SetValue(content string, width int) {
	if s.content != nil && content == s.original && width == s.width {
		return
	}
	if width < 0 {
		width = 0
	}

	s.original = content
	s.width = width
	s.content = []rune(content)
	s.origLen = len(s.content)
	s.scrolling = s.origLen > width
	if s.scrolling {
		s.content = append(s.content, []rune(scrollInterlude)...)
	}
	s.reset()
}

func (s *Scroller) reset() {
	s.start = 0
	s.end = min(s.width, len(s.content))
	s.wait = scrollHold
}

// Scrolling reports whether the text is wider than the window.
func (s *Scroller) Scrolling() bool {
	return s.scrolling
}

// CurrentViewport returns the visible text. While scrolling it is always
// exactly width runes, wrapping round to the start of the text.
func (s *Scroller) CurrentViewport() string {
	if !s.scrolling {
		return s.original
	}

	out := make([]rune, 0, s.width)
	out = append(out, s.content[s.start:s.end]...)
	if missing := s.width - (s.end - s.start); missing > 0 {
		out = append(out, s.content[:missing]...)
	}
	return string(out)
}

// Advance moves the window by one tick.
func (s *Scroller) Advance() {
	if !s.scrolling {
		return
	}
	if s.wait > 0 {
		s.wait--
		return
	}

	s.start++
	if s.start == len(s.content) {
		s.reset()
		return
	}
	if s.end < len(s.content) {
		s.end++
		if s.end == s.origLen {
			s.wait = scrollHold
		}
	}
}
