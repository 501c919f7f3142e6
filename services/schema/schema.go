package schema

import (
	"context"
	"fmt"

	"bountyhub/pkg/config"
	"bountyhub/services/issue"
	"bountyhub/services/project"
	"bountyhub/services/settlement"
	"bountyhub/services/user"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("schema",
	fx.Invoke(RegisterMigration),
)

// Models lists every table owned by the application.
func Models() []any {
	return []any{
		&user.User{},
		&project.Project{},
		&issue.Issue{},
		&issue.Comment{},
		&settlement.Snapshot{},
	}
}

func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// RegisterMigration migrates on start when DATABASE.AUTO_MIGRATE is set.
func RegisterMigration(lc fx.Lifecycle, cfg *config.Config, db *gorm.DB) {
	if !cfg.Database.AutoMigrate {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := Migrate(ctx, db); err != nil {
				zap.L().Error("[DB] Migration failed", zap.Error(err))
				return err
			}
			zap.L().Info("[DB] Schema migrated")
			return nil
		},
	})
}
