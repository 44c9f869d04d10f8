package consumer

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("consumer",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(Run),
)

func Run(lc fx.Lifecycle, c *Consumer) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go c.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
