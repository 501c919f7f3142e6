package settlement

import (
	"bountyhub/pkg/taskname"
	"bountyhub/services/issue"
	"bountyhub/services/project"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

// Store exposes the snapshot table to the project and issue services.
var Store = fx.Module("settlement.store",
	fx.Provide(
		NewSnapshotStore,
		func(s *SnapshotStore) project.SnapshotDiscarder { return s },
		func(s *SnapshotStore) issue.SettlementChecker { return s.Checker() },
	),
)

var Module = fx.Module("settlement.module",
	Store,
	fx.Provide(
		NewService,
	),
)

var Server = fx.Module("settlement.server",
	Module,
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)

var Worker = fx.Module("settlement.worker",
	Module,
	fx.Invoke(RegisterTasks),
)

func RegisterTasks(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(taskname.SettlementSnapshot, svc.HandleSnapshotTask)
}
