package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	DefaultLocale     = "en-US"
	DefaultDateLayout = "1/2/2006"
	currencySymbol    = "$"
)

// Formatter renders numbers, money and dates for one locale.
type Formatter struct {
	printer    *message.Printer
	dateLayout string
	location   *time.Location
}

// NewFormatter builds a Formatter. Empty arguments fall back to en-US, 1/2/2006 and UTC.
func NewFormatter(locale, dateLayout string, location *time.Location) (Formatter, error) {
	if strings.TrimSpace(locale) == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return Formatter{}, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	if location == nil {
		location = time.UTC
	}
	return Formatter{
		printer:    message.NewPrinter(tag),
		dateLayout: dateLayout,
		location:   location,
	}, nil
}

// DefaultFormatter formats for en-US in UTC.
func DefaultFormatter() Formatter {
	f, _ := NewFormatter(DefaultLocale, DefaultDateLayout, time.UTC)
	return f
}

// Money formats an amount with the currency prefix and two decimals. The
// digits come from the decimal itself, only the separators from the locale.
func (f Formatter) Money(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}

	whole, frac, _ := strings.Cut(rounded.StringFixed(2), ".")
	group, point := f.separators()
	return sign + currencySymbol + groupDigits(whole, group) + point + frac
}

// separators reads the grouping and decimal marks of the locale.
func (f Formatter) separators() (group, point string) {
	if f.printer == nil {
		return ",", "."
	}
	group = strings.TrimSuffix(strings.TrimPrefix(f.printer.Sprintf("%d", 1000), "1"), "000")
	point = strings.TrimSuffix(strings.TrimPrefix(f.printer.Sprintf("%.1f", 1.5), "1"), "5")
	if point == "" {
		point = "."
	}
	return group, point
}

func groupDigits(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(sep)
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Count formats an integer with locale grouping.
func (f Formatter) Count(n int) string {
	return f.printer.Sprintf("%d", n)
}

// Date formats the calendar date of t, without time of day.
func (f Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.In(f.location).Format(f.dateLayout)
}

// DateTime formats t with date and time of day.
func (f Formatter) DateTime(t time.Time) string {
	return t.In(f.location).Format(f.dateLayout + " 15:04")
}

// IsZero reports whether f was declared without NewFormatter.
func (f Formatter) IsZero() bool {
	return f.printer == nil
}
