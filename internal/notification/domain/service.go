package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/canvass/pkg/db/pagination"
)

type ListNotificationRequest struct {
	pagination.Pagination
	RecipientUserID string
	UnreadOnly      bool
}

type ListNotificationResponse struct {
	pagination.PageInfo
	Notifications []Notification `json:"notifications"`
}

type Service interface {
	// NewNotification assembles a notification row for inclusion in a
	// reactor batch. It assigns the row id but does not persist anything.
	NewNotification(recipientUserID, kind string, payload map[string]any, at time.Time) (*Notification, error)
	List(ctx context.Context, req ListNotificationRequest) (ListNotificationResponse, error)
	// Published reports a freshly committed notification to the optional
	// live fan-out. Best effort, never part of the batch.
	Published(ctx context.Context, notification *Notification)
}
