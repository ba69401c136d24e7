package pdf

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/bidi"
)

// visualOrder reorders one line of logical text into the left-to-right
// sequence a PDF content stream expects. Right-to-left runs are reversed,
// embedded left-to-right runs such as numbers and Latin words keep their order.
// Glyph shaping is not applied.
func visualOrder(line string, rtl bool) (visual string) {
	if line == "" {
		return line
	}

	defer func() {
		if recover() != nil {
			visual = line
		}
	}()

	var p bidi.Paragraph
	var opts []bidi.Option
	if rtl {
		opts = append(opts, bidi.DefaultDirection(bidi.RightToLeft))
	}
	if _, err := p.SetString(line, opts...); err != nil {
		return line
	}
	ordering, err := p.Order()
	if err != nil {
		return line
	}

	runs := make([]string, 0, ordering.NumRuns())
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		s := run.String()
		if run.Direction() == bidi.RightToLeft {
			s = bidi.ReverseString(s)
		}
		runs = append(runs, s)
	}
	if rtl {
		slices.Reverse(runs)
	}
	return strings.Join(runs, "")
}

// basicPlane replaces runes the embedded font tables cannot index.
func basicPlane(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return '?'
		}
		return r
	}, s)
}
