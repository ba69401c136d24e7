package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dejobratic/orderreport/internal/reports/ports"
)

// Console prints one line per notification, the way a user sees progress
// messages in the command line exporter.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Notify(_ context.Context, note ports.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.w, note.Message())
}
