package repocache

import (
	"bountyhub/pkg/config"

	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"
)

type cacheParams struct {
	fx.In
	Config *config.Config
	Store  Store
	Clock  clockwork.Clock `optional:"true"`
}

func NewRepositoryCache(p cacheParams) *Cache[[]Repository] {
	return New[[]Repository]("repositories", p.Store, p.Clock, p.Config.RepoCache.TTL)
}

func newLister(gh *GithubLister, cache *Cache[[]Repository]) *CachedLister {
	return NewCachedLister(gh, cache)
}

var Module = fx.Module("repocache",
	fx.Provide(
		fx.Annotate(NewRedisStore, fx.As(new(Store))),
		NewRepositoryCache,
		NewGithubLister,
		newLister,
	),
)

var Server = fx.Module("repocache.server",
	Module,
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)
