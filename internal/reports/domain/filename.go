package domain

import (
	"fmt"
	"strings"
	"time"
)

// Filename names the exported artifact after the export date and the final order count.
func Filename(exportedAt time.Time, orderCount int, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "pdf"
	}
	return fmt.Sprintf("orders-report-%s-%d-orders.%s", exportedAt.UTC().Format(DateLayout), orderCount, ext)
}
