package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/canvass/internal/audit/domain"
	"github.com/smallbiznis/canvass/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  auditdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) NewRecord(eventID, action string, subjectIDs map[string]any, at time.Time) (*auditdomain.AuditRecord, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, auditdomain.ErrInvalidEventID
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, auditdomain.ErrInvalidAction
	}

	subjects := datatypes.JSONMap{}
	for key, value := range subjectIDs {
		if key == "" {
			continue
		}
		subjects[key] = value
	}

	return &auditdomain.AuditRecord{
		ID:         s.genID.Generate(),
		EventID:    eventID,
		Action:     action,
		SubjectIDs: subjects,
		CreatedAt:  at.UTC(),
	}, nil
}

func (s *Service) Append(ctx context.Context, record *auditdomain.AuditRecord) error {
	if err := s.repo.Insert(ctx, record); err != nil {
		s.log.Warn("failed to append audit record", zap.String("action", record.Action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListAuditRecordRequest) (auditdomain.ListAuditRecordResponse, error) {
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return auditdomain.ListAuditRecordResponse{}, auditdomain.ErrInvalidTimeRange
	}

	var cursor *auditdomain.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return auditdomain.ListAuditRecordResponse{}, auditdomain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339, decoded.CreatedAt)
		if err != nil {
			return auditdomain.ListAuditRecordResponse{}, auditdomain.ErrInvalidPageToken
		}
		id, err := strconv.ParseInt(strings.TrimSpace(decoded.ID), 10, 64)
		if err != nil || id == 0 {
			return auditdomain.ListAuditRecordResponse{}, auditdomain.ErrInvalidPageToken
		}
		cursor = &auditdomain.Cursor{
			ID:        id,
			CreatedAt: createdAt,
		}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, auditdomain.ListFilter{
		EventID: req.EventID,
		Action:  req.Action,
		StartAt: req.StartAt,
		EndAt:   req.EndAt,
		Cursor:  cursor,
		Limit:   pageSize,
	})
	if err != nil {
		return auditdomain.ListAuditRecordResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *auditdomain.AuditRecord) string {
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

	records := make([]auditdomain.AuditRecord, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, *item)
	}

	resp := auditdomain.ListAuditRecordResponse{AuditRecords: records}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}
