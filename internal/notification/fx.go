package notification

import (
	"github.com/smallbiznis/canvass/internal/notification/live"
	"github.com/smallbiznis/canvass/internal/notification/repository"
	"github.com/smallbiznis/canvass/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(live.NewHub),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
