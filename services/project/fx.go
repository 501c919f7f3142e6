package project

import (
	"go.uber.org/fx"
)

var Module = fx.Module("project.module",
	fx.Provide(
		NewService,
	),
)

var Server = fx.Module("project.server",
	Module,
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)
