package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	ReportTitle    = "Orders Report"
	SummaryHeading = "Summary"
	DetailsHeading = "Orders Details"
	NotAvailable   = "N/A"
)

// Columns are the table headers of the orders section.
var Columns = []string{"ID", "User", "Address", "Phone", "Products", "Total", "Status", "Date"}

// Line is a labelled line of the filter or summary blocks.
type Line struct {
	Label  string
	Value  Text
	Indent bool
}

// String joins label and value the way they are printed.
func (l Line) String() string {
	if l.Label == "" {
		return l.Value.Value
	}
	if l.Value.Value == "" {
		return l.Label
	}
	return l.Label + " " + l.Value.Value
}

// Row is one order of the table body.
type Row struct {
	ID       Text
	User     Text
	Address  Text
	Phone    Text
	Products Text
	Total    Text
	Status   Text
	Date     Text
}

// Cells returns the row values in column order.
func (r Row) Cells() []Text {
	return []Text{r.ID, r.User, r.Address, r.Phone, r.Products, r.Total, r.Status, r.Date}
}

// Document is the in-memory report assembled before serialization.
type Document struct {
	Title       string
	GeneratedAt time.Time
	Generated   Line
	Filters     []Line
	Summary     Summary
	SummaryText []Line
	Columns     []string
	Rows        []Row
}

// HasRTL reports whether any text of the document needs right-to-left handling.
func (d Document) HasRTL() bool {
	for _, l := range d.Filters {
		if l.Value.IsRTL() {
			return true
		}
	}
	for _, l := range d.SummaryText {
		if l.Value.IsRTL() {
			return true
		}
	}
	for _, r := range d.Rows {
		for _, c := range r.Cells() {
			if c.IsRTL() {
				return true
			}
		}
	}
	return false
}

// BuildDocument lays out header, filters, summary and one row per order.
func BuildDocument(orders []Order, summary Summary, query ReportQuery, generatedAt time.Time, f Formatter) Document {
	doc := Document{
		Title:       ReportTitle,
		GeneratedAt: generatedAt,
		Generated:   Line{Label: "Generated on:", Value: NewText(f.Date(generatedAt))},
		Filters:     filterLines(query),
		Summary:     summary,
		SummaryText: summaryLines(summary, f),
		Columns:     Columns,
		Rows:        make([]Row, 0, len(orders)),
	}

	for _, o := range orders {
		doc.Rows = append(doc.Rows, buildRow(o, f))
	}

	return doc
}

func filterLines(q ReportQuery) []Line {
	var lines []Line
	if strings.TrimSpace(q.Search) != "" {
		lines = append(lines, Line{Label: "Search:", Value: NewText(q.Search)})
	}
	if q.Status != "" {
		lines = append(lines, Line{Label: "Status:", Value: NewText(string(q.Status))})
	}
	if !q.Range.IsEmpty() {
		start, end := "Start", "End"
		if !q.Range.Start.IsZero() {
			start = q.Range.Start.Format(DateLayout)
		}
		if !q.Range.End.IsZero() {
			end = q.Range.End.Format(DateLayout)
		}
		lines = append(lines, Line{Label: "Date Range:", Value: NewText(start + " to " + end)})
	}
	return lines
}

func summaryLines(s Summary, f Formatter) []Line {
	lines := []Line{
		{Label: "Total Orders:", Value: NewText(f.Count(s.TotalOrders))},
		{Label: "Total Revenue:", Value: NewText(f.Money(s.TotalRevenue))},
		{Label: "Status Distribution:"},
	}
	for _, sc := range s.StatusCounts {
		lines = append(lines, Line{
			Label:  string(sc.Status) + ":",
			Value:  NewText(f.Count(sc.Count) + " orders"),
			Indent: true,
		})
	}
	return lines
}

func buildRow(o Order, f Formatter) Row {
	items := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, describeItem(item, f))
	}

	return Row{
		ID:       NewText(o.ShortID()),
		User:     orNotAvailable(o.Username()),
		Address:  orNotAvailable(o.Address()),
		Phone:    orNotAvailable(o.Phone()),
		Products: NewLines(items),
		Total:    NewText(f.Money(o.TotalAmount)),
		Status:   NewText(string(o.Status)),
		Date:     NewText(f.Date(o.OrderedAt)),
	}
}

func describeItem(item LineItem, f Formatter) string {
	name := NotAvailable
	if item.Product != nil && strings.TrimSpace(item.Product.Name) != "" {
		name = item.Product.Name
	}
	desc := fmt.Sprintf("%s (%d × %s)", name, item.Quantity, f.Money(item.UnitPrice))
	if item.HasVariant() {
		desc += " - Color: " + item.Variant
	}
	return desc
}

func orNotAvailable(value *string) Text {
	if value == nil || strings.TrimSpace(*value) == "" {
		return NewText(NotAvailable)
	}
	return NewText(*value)
}
