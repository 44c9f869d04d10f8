package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/canvass/internal/audit"
	"github.com/smallbiznis/canvass/internal/clock"
	"github.com/smallbiznis/canvass/internal/config"
	"github.com/smallbiznis/canvass/internal/consumer"
	"github.com/smallbiznis/canvass/internal/logger"
	"github.com/smallbiznis/canvass/internal/migration"
	"github.com/smallbiznis/canvass/internal/notification"
	"github.com/smallbiznis/canvass/internal/observability"
	"github.com/smallbiznis/canvass/internal/reactor"
	"github.com/smallbiznis/canvass/internal/rollup"
	"github.com/smallbiznis/canvass/internal/server"
	"github.com/smallbiznis/canvass/internal/store"
	"github.com/smallbiznis/canvass/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		store.Module,

		// Functional Domains
		audit.Module,
		notification.Module,
		rollup.Module,
		reactor.Module,
		consumer.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
