package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/sweetdelights-backend/pkg/config"
	"github.com/angelmondragon/sweetdelights-backend/pkg/db"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations when running in dev with the auto-migrate flag on.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	dialect := DialectFor(cfg.DB)
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": dialect})
	logg.Info(ctx, "running goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, dialect, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}

// DialectFor maps the configured gorm driver to a goose dialect.
func DialectFor(cfg config.DBConfig) string {
	if cfg.IsSQLite() {
		return DialectSQLite
	}
	return DialectPostgres
}
