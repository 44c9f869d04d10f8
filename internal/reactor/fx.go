package reactor

import (
	"github.com/smallbiznis/canvass/internal/cache"
	candidaterepo "github.com/smallbiznis/canvass/internal/candidate/repository"
	endorsementrepo "github.com/smallbiznis/canvass/internal/endorsement/repository"
	"github.com/smallbiznis/canvass/internal/reactor/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reactor.service",
	fx.Provide(cache.NewOwnerResolverCache),
	fx.Provide(candidaterepo.Provide),
	fx.Provide(endorsementrepo.Provide),
	fx.Provide(service.NewService),
)
