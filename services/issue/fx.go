package issue

import (
	"go.uber.org/fx"
)

var Module = fx.Module("issue.module",
	fx.Provide(
		NewService,
	),
)

var Server = fx.Module("issue.server",
	Module,
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)
