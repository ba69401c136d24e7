package domain

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/bidi"
)

// Direction is the writing direction of a text run.
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
)

func (d Direction) String() string {
	if d == RightToLeft {
		return "rtl"
	}
	return "ltr"
}

// Text is a sanitized cell value together with its writing direction.
type Text struct {
	Value     string
	Direction Direction
}

// NewText strips control characters from value and classifies its direction.
func NewText(value string) Text {
	clean := sanitize(value)
	return Text{Value: clean, Direction: directionOf(clean)}
}

// NewLines sanitizes each line and joins them with newlines.
func NewLines(lines []string) Text {
	clean := make([]string, 0, len(lines))
	for _, line := range lines {
		clean = append(clean, sanitize(line))
	}
	joined := strings.Join(clean, "\n")
	return Text{Value: joined, Direction: directionOf(joined)}
}

// IsRTL reports whether the run contains right-to-left script.
func (t Text) IsRTL() bool {
	return t.Direction == RightToLeft
}

// IsLatin1 reports whether every rune fits in a single-byte Western encoding.
func (t Text) IsLatin1() bool {
	for _, r := range t.Value {
		if r > 0xFF {
			return false
		}
	}
	return true
}

// sanitize drops C0 and C1 control characters, newlines included.
func sanitize(value string) string {
	if value == "" {
		return value
	}
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r == utf8.RuneError {
			continue
		}
		if r <= 0x1F || (r >= 0x7F && r <= 0x9F) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func directionOf(value string) Direction {
	for _, r := range value {
		props, _ := bidi.LookupRune(r)
		switch props.Class() {
		case bidi.R, bidi.AL:
			return RightToLeft
		}
	}
	return LeftToRight
}
