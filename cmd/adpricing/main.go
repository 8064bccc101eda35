package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/adpricing/internal/cache"
	"github.com/smallbiznis/adpricing/internal/clock"
	"github.com/smallbiznis/adpricing/internal/config"
	"github.com/smallbiznis/adpricing/internal/migration"
	"github.com/smallbiznis/adpricing/internal/observability"
	"github.com/smallbiznis/adpricing/internal/server"
	"github.com/smallbiznis/adpricing/pkg/db"
	"go.uber.org/fx"
)

func main() {
	// prices travel as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		cache.Module,
		clock.Module,
		migration.Module,

		// Pricing, campaigns and HTTP
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
