package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	notificationdomain "github.com/smallbiznis/canvass/internal/notification/domain"
	"github.com/smallbiznis/canvass/pkg/db/pagination"
)

type listNotificationsQuery struct {
	PageToken       string `form:"page_token"`
	PageSize        int    `form:"page_size"`
	RecipientUserID string `form:"recipient_user_id"`
	UnreadOnly      bool   `form:"unread_only"`
}

func (s *Server) ListNotifications(c *gin.Context) {
	var query listNotificationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.notificationSvc.List(c.Request.Context(), notificationdomain.ListNotificationRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		RecipientUserID: strings.TrimSpace(query.RecipientUserID),
		UnreadOnly:      query.UnreadOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
