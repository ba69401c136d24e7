package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontfamily"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/johnfercher/maroto/v2/pkg/repository"
	"github.com/jung-kurt/gofpdf"

	"github.com/dejobratic/orderreport/internal/reports/domain"
)

const (
	gridLine = 4.0

	// maroto keeps a 20.0025mm bottom margin by default; the page number is
	// drawn inside it. footerOffset is kept free as slack.
	marotoBottomMargin = 20.0025
	gridPageBudget     = 297 - pageMargin - marotoBottomMargin - footerOffset
)

// gridSizes spreads the eight order columns over maroto's twelve column grid.
var gridSizes = []int{1, 1, 2, 1, 3, 1, 1, 2}

// GridRenderer lays the report out on maroto's row and column grid.
type GridRenderer struct {
	logger *slog.Logger
}

func NewGridRenderer(logger *slog.Logger) *GridRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &GridRenderer{logger: logger}
}

func (r *GridRenderer) Extension() string {
	return "pdf"
}

func (r *GridRenderer) Render(ctx context.Context, doc domain.Document, font *domain.FontAsset) ([]byte, error) {
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

func (r *GridRenderer) render(doc domain.Document, font *domain.FontAsset) (artifact []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf grid: %v", rec)
		}
	}()

	builder := config.NewBuilder().
		WithLeftMargin(pageMargin).
		WithTopMargin(pageMargin).
		WithRightMargin(pageMargin).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.Bottom,
			Size:    bodySize,
			Color:   propsColor(muted),
		}).
		WithDefaultFont(&props.Font{
			Family: fontfamily.Helvetica,
			Size:   textSize,
		})

	g := &gridWriter{measure: gofpdf.New("P", "mm", "A4", "")}
	if font != nil {
		fonts, err := repository.New().
			AddUTF8FontFromBytes(unicodeFamily, fontstyle.Normal, font.Data).
			AddUTF8FontFromBytes(unicodeFamily, fontstyle.Bold, font.Data).
			Load()
		if err != nil {
			return nil, fmt.Errorf("load font %s: %w", font.Family, err)
		}
		builder = builder.WithCustomFonts(fonts)
		g.unicode = true
	}

	g.m = maroto.New(builder.Build())
	g.write(doc)

	document, err := g.m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return document.GetBytes(), nil
}

type gridWriter struct {
	m       core.Maroto
	measure *gofpdf.Fpdf
	unicode bool
	pages   []*gridPage
}

// gridPage is a run of rows laid out on one sheet. Pages are cut here rather
// than by maroto so that every table page can open with the column header.
type gridPage struct {
	rows     []core.Row
	height   float64
	headerAt []int // indexes of column header rows
}

func (g *gridWriter) write(doc domain.Document) {
	g.layout(doc)

	g.m.AddRows(g.pages[0].rows...)
	for _, p := range g.pages[1:] {
		g.m.AddPages(page.New().Add(p.rows...))
	}
}

func (g *gridWriter) layout(doc domain.Document) {
	g.pages = []*gridPage{{}}

	g.add(row.New(14).Add(col.New(12).Add(text.New(doc.Title, props.Text{
		Size:  titleSize,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: propsColor(accent),
	}))), 14)

	g.line(doc.Generated)
	for _, l := range doc.Filters {
		g.line(l)
	}
	g.add(row.New(3), 3)

	g.heading(domain.SummaryHeading)
	for _, l := range doc.SummaryText {
		g.line(l)
	}
	g.add(row.New(3), 3)

	g.heading(domain.DetailsHeading)
	if len(doc.Rows) == 0 {
		g.header(doc.Columns)
		return
	}

	for i, r := range doc.Rows {
		body, height := g.row(r.Cells(), i%2 == 1)
		switch {
		case i == 0 && !g.fits(headerHeight+height):
			g.newPage()
			g.header(doc.Columns)
		case i == 0:
			g.header(doc.Columns)
		case !g.fits(height):
			g.newPage()
			g.header(doc.Columns)
		}
		g.add(body, height)
	}
}

func (g *gridWriter) current() *gridPage {
	return g.pages[len(g.pages)-1]
}

func (g *gridWriter) add(r core.Row, height float64) {
	p := g.current()
	p.rows = append(p.rows, r)
	p.height += height
}

// fits reports whether height more fits on the current page. An empty page
// takes any row; taller rows are left to maroto's own page break.
func (g *gridWriter) fits(height float64) bool {
	p := g.current()
	return p.height == 0 || p.height+height <= gridPageBudget
}

func (g *gridWriter) newPage() {
	g.pages = append(g.pages, &gridPage{})
}

func (g *gridWriter) heading(title string) {
	g.add(row.New(9).Add(col.New(12).Add(text.New(title, props.Text{
		Size:  headingSize,
		Style: fontstyle.Bold,
		Color: propsColor(accent),
	}))), 9)
}

func (g *gridWriter) line(l domain.Line) {
	content := domain.Text{Value: l.String(), Direction: l.Value.Direction}
	p := g.textProps(content, textSize)
	if l.Indent {
		p.Left = indentWidth
	}
	g.add(row.New(6).Add(col.New(12).Add(text.New(g.visual(content), p))), 6)
}

func (g *gridWriter) header(columns []string) {
	cols := make([]core.Col, 0, len(columns))
	for i, c := range columns {
		cols = append(cols, col.New(gridSize(i, len(columns))).Add(text.New(c, props.Text{
			Size:  headerSize,
			Style: fontstyle.Bold,
			Align: align.Center,
			Top:   2,
			Color: propsColor(white),
		})).WithStyle(&props.Cell{BackgroundColor: propsColor(accent)}))
	}
	p := g.current()
	p.headerAt = append(p.headerAt, len(p.rows))
	g.add(row.New(headerHeight).Add(cols...), headerHeight)
}

// row places each wrapped line as its own text component so that
// right-to-left lines keep their order after reordering.
func (g *gridWriter) row(cells []domain.Text, striped bool) (core.Row, float64) {
	cols := make([]core.Col, 0, len(cells))
	lines := 1
	for i, c := range cells {
		size := gridSize(i, len(cells))
		wrapped := g.wrap(c, float64(size)*contentWidth()/12)
		lines = max(lines, len(wrapped))

		cell := col.New(size)
		p := g.textProps(c, bodySize)
		for n, l := range wrapped {
			lp := p
			lp.Top = rowPadding + float64(n)*gridLine
			cell.Add(text.New(l, lp))
		}
		if striped {
			cell.WithStyle(&props.Cell{BackgroundColor: propsColor(stripe)})
		}
		cols = append(cols, cell)
	}
	height := float64(lines)*gridLine + 2*rowPadding
	return row.New(height).Add(cols...), height
}

// wrap breaks a value into printable lines on word boundaries, measured with
// the built-in font metrics.
func (g *gridWriter) wrap(t domain.Text, width float64) []string {
	g.measure.SetFont(coreFamily, "", bodySize)
	limit := width - 2*cellPadding

	var lines []string
	for _, paragraph := range strings.Split(t.Value, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			candidate := word
			if current != "" {
				candidate = current + " " + word
				if g.measure.GetStringWidth(candidate) > limit {
					lines = append(lines, current)
					candidate = word
				}
			}
			current = candidate
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}

	for i, l := range lines {
		lines[i] = g.visual(domain.Text{Value: l, Direction: t.Direction})
	}
	return lines
}

func (g *gridWriter) visual(t domain.Text) string {
	if !g.unicode || !t.IsRTL() {
		return t.Value
	}
	return visualOrder(basicPlane(t.Value), true)
}

func (g *gridWriter) textProps(t domain.Text, size float64) props.Text {
	p := props.Text{Size: size, Align: align.Left, Color: propsColor(ink)}
	if t.IsRTL() {
		p.Align = align.Right
	}
	if g.unicode && (t.IsRTL() || !t.IsLatin1()) {
		p.Family = unicodeFamily
	}
	return p
}

func gridSize(i, n int) int {
	if n == len(gridSizes) {
		return gridSizes[i]
	}
	return max(1, 12/max(n, 1))
}

func contentWidth() float64 {
	return 210 - 2*pageMargin
}

func propsColor(c color) *props.Color {
	return &props.Color{Red: c.r, Green: c.g, Blue: c.b}
}
