package main

import (
	"log"

	"bountyhub/pkg/config"
	"bountyhub/pkg/db"
	"bountyhub/pkg/gen"
	"bountyhub/pkg/logger"
	"bountyhub/pkg/redis"
	"bountyhub/pkg/sequence"
	"bountyhub/pkg/task"
	"bountyhub/services/access"
	"bountyhub/services/issue"
	"bountyhub/services/project"
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
		redis.Module,
		task.Client,
		task.Server,
		sequence.Module,
		gen.Module,
		access.Module,
		user.Module,
		project.Module,
		issue.Module,
		settlement.Worker,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	fx.New(opts...).Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
