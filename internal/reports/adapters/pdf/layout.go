package pdf

const (
	pageMargin   = 10.0
	footerOffset = 12.0
	contentFloor = 16.0
	lineHeight   = 5.0
	headerHeight = 8.0
	rowPadding   = 1.0
	cellPadding  = 1.2
	indentWidth  = 6.0

	titleSize   = 24.0
	headingSize = 14.0
	textSize    = 10.0
	headerSize  = 9.0
	bodySize    = 8.0

	coreFamily    = "Helvetica"
	unicodeFamily = "ReportUnicode"
)

type color struct{ r, g, b int }

var (
	accent  = color{41, 128, 185}
	white   = color{255, 255, 255}
	ink     = color{33, 33, 33}
	muted   = color{128, 128, 128}
	stripe  = color{245, 245, 245}
	divider = color{200, 200, 200}
)

// defaultWidths fits the eight order columns on A4 portrait, in millimetres.
var defaultWidths = []float64{14, 24, 30, 22, 46, 18, 18, 18}

// columnWidths returns the default widths for the standard column set and an
// even split of total otherwise.
func columnWidths(n int, total float64) []float64 {
	if n == len(defaultWidths) {
		var sum float64
		for _, w := range defaultWidths {
			sum += w
		}
		widths := make([]float64, n)
		for i, w := range defaultWidths {
			widths[i] = w * total / sum
		}
		return widths
	}
	if n == 0 {
		return nil
	}
	widths := make([]float64, n)
	for i := range widths {
		widths[i] = total / float64(n)
	}
	return widths
}
