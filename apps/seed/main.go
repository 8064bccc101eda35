// Command seed applies migrations and publishes the default pricing version, then exits.
package main

import (
	"context"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adpricing/internal/config"
	"github.com/smallbiznis/adpricing/internal/migration"
	"github.com/smallbiznis/adpricing/internal/observability"
	"github.com/smallbiznis/adpricing/internal/seed"
	"github.com/smallbiznis/adpricing/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(func(cfg config.Config) (*snowflake.Node, error) {
			return snowflake.NewNode(cfg.SnowflakeNode)
		}),
		db.Module,
		fx.Invoke(run),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		os.Exit(1)
	}
	_ = app.Stop(ctx)
}

func run(conn *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
	ctx := context.Background()
	if err := migration.Run(conn); err != nil {
		log.Error("migrate failed", zap.Error(err))
		return err
	}
	if err := seed.EnsureDefaultPricing(ctx, conn, node, log); err != nil {
		log.Error("seed failed", zap.Error(err))
		return err
	}
	log.Info("initial pricing configuration seeded")
	return nil
}
