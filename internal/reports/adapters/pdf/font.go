package pdf

import (
	"errors"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/dejobratic/orderreport/internal/reports/domain"
)

var errNotTrueType = errors.New("payload is not a TrueType font")

// probeFont embeds the font into a throwaway document to make sure the
// writer can parse and subset it.
func probeFont(font *domain.FontAsset) (err error) {
	if font == nil || !domain.LooksLikeTrueType(font.Data) {
		return errNotTrueType
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parse font %s: %v", font.Family, rec)
		}
	}()

	probe := gofpdf.New("P", "mm", "A4", "")
	probe.AddUTF8FontFromBytes(unicodeFamily, "", font.Data)
	if probe.Err() {
		return fmt.Errorf("parse font %s: %w", font.Family, probe.Error())
	}
	probe.AddPage()
	probe.SetFont(unicodeFamily, "", textSize)
	probe.CellFormat(0, lineHeight, "Orders ١٢٣ שלום", "", 1, "L", false, 0, "")
	if err := probe.Output(io.Discard); err != nil {
		return fmt.Errorf("embed font %s: %w", font.Family, err)
	}
	return nil
}
