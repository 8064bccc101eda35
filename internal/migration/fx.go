package migration

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/adpricing/internal/config"
	"github.com/smallbiznis/adpricing/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, genID *snowflake.Node, log *zap.Logger) error {
		if cfg.RunMigrations {
			if err := Run(conn); err != nil {
				return err
			}
		}
		if cfg.SeedDefaultPricing {
			return seed.EnsureDefaultPricing(context.Background(), conn, genID, log)
		}
		return nil
	}),
)
