// Package display turns renderer state into two lines of text.
//
// A Sampler follows one renderer and, every 400ms, reads it into a
// RenderInfo for its Subscribers. The Writer subscriber formats the
// sample for a small character display:
//
//	line 0:  [composer: ]title           centered, or scrolled if too long
//	line 1:  time ─ album[/artist]       right aligned, or scrolled
//
//	         "[Muted]" or "Volume 25" replace line 1 while they apply
//
// Text is measured in runes, never bytes. A Printer draws the result;
// ConsolePrinter draws it on a terminal.
package display
