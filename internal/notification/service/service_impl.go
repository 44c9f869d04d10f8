package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	notificationdomain "github.com/smallbiznis/canvass/internal/notification/domain"
	"github.com/smallbiznis/canvass/internal/notification/live"
	"github.com/smallbiznis/canvass/pkg/db/option"
	"github.com/smallbiznis/canvass/pkg/db/pagination"
	"github.com/smallbiznis/canvass/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  repository.Repository[notificationdomain.Notification]
	Hub   *live.Hub `optional:"true"`
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository[notificationdomain.Notification]
	hub   *live.Hub
}

func NewService(p Params) notificationdomain.Service {
	return &Service{
		log:   p.Log.Named("notification.service"),
		genID: p.GenID,
		repo:  p.Repo,
		hub:   p.Hub,
	}
}

func (s *Service) NewNotification(recipientUserID, kind string, payload map[string]any, at time.Time) (*notificationdomain.Notification, error) {
	recipientUserID = strings.TrimSpace(recipientUserID)
	if recipientUserID == "" {
		return nil, notificationdomain.ErrInvalidRecipient
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return nil, notificationdomain.ErrInvalidKind
	}

	notification := &notificationdomain.Notification{
		ID:              s.genID.Generate(),
		RecipientUserID: recipientUserID,
		Kind:            kind,
		IsRead:          false,
		CreatedAt:       at.UTC(),
	}
	if payload != nil {
		notification.Payload = datatypes.JSONMap(payload)
	}
	return notification, nil
}

func (s *Service) List(ctx context.Context, req notificationdomain.ListNotificationRequest) (notificationdomain.ListNotificationResponse, error) {
	recipient := strings.TrimSpace(req.RecipientUserID)
	if recipient == "" {
		return notificationdomain.ListNotificationResponse{}, notificationdomain.ErrInvalidRecipient
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	filter := &notificationdomain.Notification{RecipientUserID: recipient}

	items, err := s.repo.Find(ctx, filter,
		option.ApplyPagination(pagination.Pagination{
			PageToken: req.PageToken,
			PageSize:  pageSize,
		}),
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
	)
	if err != nil {
		return notificationdomain.ListNotificationResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *notificationdomain.Notification) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	notifications := make([]notificationdomain.Notification, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if req.UnreadOnly && item.IsRead {
			continue
		}
		notifications = append(notifications, *item)
	}

	resp := notificationdomain.ListNotificationResponse{Notifications: notifications}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) Published(ctx context.Context, notification *notificationdomain.Notification) {
	if s.hub == nil || notification == nil {
		return
	}
	s.hub.Publish(ctx, notification)
}
