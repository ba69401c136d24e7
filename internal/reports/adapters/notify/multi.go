package notify

import (
	"context"

	"github.com/dejobratic/orderreport/internal/reports/ports"
)

// Multi fans a notification out to several notifiers in order.
type Multi []ports.Notifier

func (m Multi) Notify(ctx context.Context, note ports.Notification) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, note)
		}
	}
}
