package main

import (
	"log"

	"bountyhub/pkg/config"
	"bountyhub/pkg/db"
	"bountyhub/pkg/gen"
	"bountyhub/pkg/health"
	"bountyhub/pkg/logger"
	"bountyhub/pkg/redis"
	"bountyhub/pkg/sequence"
	"bountyhub/pkg/server"
	"bountyhub/pkg/task"
	"bountyhub/services/access"
	"bountyhub/services/issue"
	"bountyhub/services/project"
	"bountyhub/services/repocache"
	"bountyhub/services/schema"
	"bountyhub/services/settlement"
	"bountyhub/services/user"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		schema.Module,
		redis.Module,
		task.Client,
		sequence.Module,
		gen.Module,
		health.Module,
		server.ProvideHTTPServer,
		access.Module,
		user.Server,
		project.Server,
		issue.Server,
		settlement.Server,
		repocache.Server,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	fx.New(opts...).Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	if cfg.AppEnv == "production" {
		return fxevent.NopLogger
	}
	return &fxevent.ZapLogger{Logger: logger}
})
