package migrate

import (
	"context"
	"fmt"

	"github.com/threadline/storefront-gateway/internal/fallback"
	"github.com/threadline/storefront-gateway/pkg/config"
	"github.com/threadline/storefront-gateway/pkg/db"
	"github.com/threadline/storefront-gateway/pkg/logger"
)

// MaybeRunDev prepares the fallback-store schema automatically when the app is
// running in dev mode and auto-migration is enabled. The sqlite driver always
// auto-migrates since goose migrations target Postgres.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg.DB.UseSQLite() {
		if err := client.DB().WithContext(ctx).AutoMigrate(&fallback.CollectionBlob{}); err != nil {
			return fmt.Errorf("sqlite auto-migrate: %w", err)
		}
		logg.Info(ctx, "sqlite schema auto-migrated")
		return nil
	}

	if !cfg.App.IsDev() || !cfg.DB.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQLDB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	meta := map[string]any{"env": cfg.App.Env, "dir": DefaultDir}
	ctx = logg.WithFields(ctx, meta)
	logg.Info(ctx, "running Goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
