package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/jung-kurt/gofpdf"

	"github.com/dejobratic/orderreport/internal/reports/domain"
)

// TableRenderer draws the report with gofpdf. The orders table is laid out by
// hand: rows grow with their longest cell, the header repeats on every page and
// a row only splits when it is taller than a whole page.
type TableRenderer struct {
	logger *slog.Logger
}

func NewTableRenderer(logger *slog.Logger) *TableRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TableRenderer{logger: logger}
}

func (r *TableRenderer) Extension() string {
	return "pdf"
}

func (r *TableRenderer) Render(ctx context.Context, doc domain.Document, font *domain.FontAsset) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.RenderError{Stage: "serialize", Err: err}
	}

	if font != nil {
		if err := probeFont(font); err != nil {
			r.logger.WarnContext(ctx, "font rejected, using built-in font",
				"font_family", font.Family,
				"error", err,
			)
			font = nil
		}
	}

	artifact, err := r.render(doc, font)
	if err != nil && font != nil {
		r.logger.WarnContext(ctx, "rendering with embedded font failed, retrying with built-in font",
			"font_family", font.Family,
			"error", err,
		)
		artifact, err = r.render(doc, nil)
	}
	if err != nil {
		return nil, &domain.RenderError{Stage: "serialize", Err: err}
	}

	return artifact, nil
}

func (r *TableRenderer) render(doc domain.Document, font *domain.FontAsset) (artifact []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf writer: %v", rec)
		}
	}()

	w := newTableWriter(font)
	w.write(doc)
	return w.bytes()
}

type tableWriter struct {
	pdf       *gofpdf.Fpdf
	translate func(string) string
	unicode   bool

	width  float64
	top    float64
	bottom float64

	columns []string
	widths  []float64
}

// block is a cell value wrapped to a width and ready to print.
type block struct {
	lines   []string
	unicode bool
	style   string
	size    float64
	align   string
}

func newTableWriter(font *domain.FontAsset) *tableWriter {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, contentFloor)
	pdf.SetCellMargin(cellPadding)
	pdf.AliasNbPages("")

	w := &tableWriter{
		pdf:       pdf,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
	if font != nil {
		pdf.AddUTF8FontFromBytes(unicodeFamily, "", font.Data)
		w.unicode = true
	}

	pageWidth, pageHeight := pdf.GetPageSize()
	w.width = pageWidth - 2*pageMargin
	w.top = pageMargin
	w.bottom = pageHeight - contentFloor

	pdf.SetFooterFunc(w.footer)
	return w
}

func (w *tableWriter) write(doc domain.Document) {
	w.pdf.AddPage()

	w.title(doc.Title)
	w.line(doc.Generated)
	for _, l := range doc.Filters {
		w.line(l)
	}
	w.pdf.Ln(3)

	w.heading(domain.SummaryHeading)
	for _, l := range doc.SummaryText {
		w.line(l)
	}
	w.pdf.Ln(3)

	w.heading(domain.DetailsHeading)
	w.table(doc.Columns, doc.Rows)
}

func (w *tableWriter) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *tableWriter) footer() {
	w.pdf.SetY(-footerOffset)
	w.pdf.SetFont(coreFamily, "I", bodySize)
	w.textColor(muted)
	w.pdf.CellFormat(0, headerHeight, fmt.Sprintf("Page %d of {nb}", w.pdf.PageNo()), "", 0, "C", false, 0, "")
}

func (w *tableWriter) title(title string) {
	w.pdf.SetFont(coreFamily, "B", titleSize)
	w.textColor(accent)
	w.pdf.CellFormat(0, 12, w.translate(title), "", 1, "C", false, 0, "")
	w.pdf.Ln(4)
}

func (w *tableWriter) heading(text string) {
	w.ensureSpace(9 + headerHeight + lineHeight)
	w.pdf.SetFont(coreFamily, "B", headingSize)
	w.textColor(accent)
	w.pdf.CellFormat(0, 9, w.translate(text), "", 1, "L", false, 0, "")
	w.pdf.Ln(1)
}

// line prints a label in the built-in font followed by its value, which may
// need the embedded font and may wrap.
func (w *tableWriter) line(l domain.Line) {
	left := pageMargin
	if l.Indent {
		left += indentWidth
	}

	w.pdf.SetFont(coreFamily, "", textSize)
	label := w.translate(l.Label)
	var labelWidth float64
	if label != "" {
		labelWidth = w.pdf.GetStringWidth(label) + 2*cellPadding
	}

	valueWidth := w.width - (left - pageMargin) - labelWidth
	value := w.wrap(l.Value, "", textSize, valueWidth)
	height := lineHeight * float64(len(value.lines))

	w.ensureSpace(height)
	y := w.pdf.GetY()
	w.textColor(ink)

	if label != "" {
		w.pdf.SetFont(coreFamily, "", textSize)
		w.pdf.SetXY(left, y)
		w.pdf.CellFormat(labelWidth, lineHeight, label, "", 0, "L", false, 0, "")
	}
	w.draw(value, left+labelWidth, y, valueWidth)

	w.pdf.SetXY(pageMargin, y+height)
}

func (w *tableWriter) table(columns []string, rows []domain.Row) {
	w.columns = columns
	w.widths = columnWidths(len(columns), w.width)

	w.ensureSpace(headerHeight + lineHeight + 2*rowPadding)
	w.header()

	for i, row := range rows {
		w.row(row.Cells(), i%2 == 1)
	}
}

func (w *tableWriter) header() {
	w.pdf.SetFont(coreFamily, "B", headerSize)
	w.fillColor(accent)
	w.drawColor(accent)
	w.textColor(white)

	w.pdf.SetX(pageMargin)
	for i, c := range w.columns {
		w.pdf.CellFormat(w.widths[i], headerHeight, w.translate(c), "1", 0, "C", true, 0, "")
	}
	w.pdf.Ln(headerHeight)
}

func (w *tableWriter) row(cells []domain.Text, striped bool) {
	if len(cells) > len(w.widths) {
		cells = cells[:len(w.widths)]
	}

	blocks := make([]block, len(cells))
	total := 1
	for i, c := range cells {
		blocks[i] = w.wrap(c, "", bodySize, w.widths[i])
		total = max(total, len(blocks[i].lines))
	}

	perPage := w.linesPerPage()
	for from := 0; from < total; {
		fits := w.linesAvailable()
		remaining := total - from

		if remaining <= fits {
			w.rowSlice(blocks, from, total, striped)
			return
		}
		// Move whole rows to a fresh page when they fit there.
		if fits < 1 || (from == 0 && remaining <= perPage) {
			w.newPage()
			continue
		}

		w.rowSlice(blocks, from, from+fits, striped)
		from += fits
		w.newPage()
	}
}

func (w *tableWriter) rowSlice(blocks []block, from, to int, striped bool) {
	y := w.pdf.GetY()
	height := float64(to-from)*lineHeight + 2*rowPadding

	if striped {
		w.fillColor(stripe)
		w.pdf.Rect(pageMargin, y, w.width, height, "F")
	}

	w.drawColor(divider)
	w.pdf.SetLineWidth(0.1)
	x := pageMargin
	for i, b := range blocks {
		w.pdf.Rect(x, y, w.widths[i], height, "D")

		part := b
		part.lines = window(b.lines, from, to)
		w.textColor(ink)
		w.draw(part, x, y+rowPadding, w.widths[i])

		x += w.widths[i]
	}

	w.pdf.SetXY(pageMargin, y+height)
}

func (w *tableWriter) newPage() {
	w.pdf.AddPage()
	w.header()
}

func (w *tableWriter) linesAvailable() int {
	return int((w.bottom - w.pdf.GetY() - 2*rowPadding) / lineHeight)
}

func (w *tableWriter) linesPerPage() int {
	return int((w.bottom - w.top - headerHeight - 2*rowPadding) / lineHeight)
}

func (w *tableWriter) ensureSpace(height float64) {
	if w.pdf.GetY()+height > w.bottom {
		w.pdf.AddPage()
	}
}

// wrap splits a value to width. Text the built-in font cannot encode, and
// right-to-left text, goes through the embedded font when one is loaded.
func (w *tableWriter) wrap(t domain.Text, style string, size, width float64) block {
	b := block{style: style, size: size, align: "L"}
	if t.IsRTL() {
		b.align = "R"
	}

	if w.unicode && (t.IsRTL() || !t.IsLatin1()) {
		b.unicode = true
		w.pdf.SetFont(unicodeFamily, "", size)
		for _, l := range w.pdf.SplitText(basicPlane(t.Value), width) {
			b.lines = append(b.lines, visualOrder(l, t.IsRTL()))
		}
	} else {
		w.pdf.SetFont(coreFamily, style, size)
		for _, l := range w.pdf.SplitLines([]byte(w.translate(t.Value)), width) {
			b.lines = append(b.lines, string(l))
		}
	}

	if len(b.lines) == 0 {
		b.lines = []string{""}
	}
	return b
}

func (w *tableWriter) draw(b block, x, y, width float64) {
	if b.unicode {
		w.pdf.SetFont(unicodeFamily, "", b.size)
	} else {
		w.pdf.SetFont(coreFamily, b.style, b.size)
	}
	for i, l := range b.lines {
		w.pdf.SetXY(x, y+float64(i)*lineHeight)
		w.pdf.CellFormat(width, lineHeight, l, "", 0, b.align, false, 0, "")
	}
}

func (w *tableWriter) textColor(c color) {
	w.pdf.SetTextColor(c.r, c.g, c.b)
}

func (w *tableWriter) fillColor(c color) {
	w.pdf.SetFillColor(c.r, c.g, c.b)
}

func (w *tableWriter) drawColor(c color) {
	w.pdf.SetDrawColor(c.r, c.g, c.b)
}

func window(lines []string, from, to int) []string {
	if from >= len(lines) {
		return nil
	}
	return lines[from:min(to, len(lines))]
}
