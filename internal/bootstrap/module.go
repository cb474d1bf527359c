package bootstrap

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"

	"thientai/internal/bootstrap/logging"
	cacheinfra "thientai/internal/infrastructure/cache"
	sqliterepo "thientai/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "thientai/internal/infrastructure/persistence/sqlite/uow"
	"thientai/internal/ports"
	riskuc "thientai/internal/usecase/risk"
)

var Module = fx.Options(
	fx.Provide(provideApp),
	fx.Provide(provideRepository),
	fx.Provide(provideUnitOfWork),
	fx.Provide(provideCache),
	fx.Provide(provideService),
)

func provideApp(lc fx.Lifecycle, ctx context.Context, configFile configFileParam) (*App, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	app, err := New(logCtx, configFile.Value)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(stopCtx context.Context) error {
			return app.Close(stopCtx)
		},
	})

	return app, nil
}

type configFileParam struct {
	fx.In

	Value string `name:"configFile"`
}

// Providers below tolerate a nil DB: the service then runs degraded
// instead of the process failing to wire.

func provideRepository(app *App) ports.RiskRepository {
	if app.DB == nil {
		return nil
	}
	return sqliterepo.NewRiskRepository(app.DB)
}

func provideUnitOfWork(app *App) ports.UnitOfWork {
	if app.DB == nil {
		return nil
	}
	return sqliteuow.NewUnitOfWork(app.DB)
}

func provideCache(app *App) ports.Cache {
	if app.DB == nil {
		return nil
	}
	return cacheinfra.NewStormCache(app.DB)
}

func provideService(app *App, repo ports.RiskRepository, uow ports.UnitOfWork, cache ports.Cache) *riskuc.Service {
	return riskuc.NewService(repo, uow, cache, riskuc.Options{
		ClusterRadiusKm: app.Config.Collector.ClusterRadiusKm,
		AlertTTL:        app.Config.Collector.AlertTTL,
		HistoryKeepDays: app.Config.Collector.HistoryKeepDays,
		ProvinceRainCap: app.Config.Collector.ProvinceRainCap,
		Clock:           clockwork.NewRealClock(),
	})
}
