package ports

import (
	"context"
	"fmt"
)

// NotificationKind identifies a step of the export lifecycle.
type NotificationKind string

const (
	NotificationStarted   NotificationKind = "started"
	NotificationSucceeded NotificationKind = "succeeded"
	NotificationFailed    NotificationKind = "failed"
	NotificationNoData    NotificationKind = "no_data"
)

// Notification is a user-facing progress message.
type Notification struct {
	Kind       NotificationKind
	ExportID   string
	Reason     string
	Filename   string
	OrderCount int
}

// Notifier delivers progress notifications. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Message is the text shown to the user for the notification.
func (n Notification) Message() string {
	switch n.Kind {
	case NotificationStarted:
		return "Generating PDF report..."
	case NotificationSucceeded:
		return fmt.Sprintf("PDF report downloaded: %s (%d orders)", n.Filename, n.OrderCount)
	case NotificationNoData:
		return "No orders to export"
	case NotificationFailed:
		if n.Reason != "" {
			return n.Reason
		}
		return "Failed to generate PDF report"
	}
	return string(n.Kind)
}
