package components

import (
	"context"
	"log/slog"

	"course-enrollment/internal/infra/db"
	fsstore "course-enrollment/internal/infra/firestore"
	"course-enrollment/internal/infra/memstore"
	"course-enrollment/internal/infra/uow"
	"course-enrollment/internal/pkg/clock"
	"course-enrollment/internal/pkg/config"
	"course-enrollment/internal/pkg/errs"
	"course-enrollment/internal/usecase/shared"
	"course-enrollment/internal/worker"

	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		clock.NewRealClock,
		NewUnitOfWork,
	),
)

// OutboxModule is the relay's persistence; it drains whichever durable store
// the API writes to.
var OutboxModule = fx.Module("outbox",
	fx.Provide(
		NewOutboxStore,
	),
)

// NewUnitOfWork opens only the backend selected by STORE_BACKEND.
func NewUnitOfWork(lc fx.Lifecycle, cfg config.Config, fb *FirebaseLoader, clk clock.Clock, logger *slog.Logger) (shared.UnitOfWork, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendFirestore:
		return openFirestore(lc, fb, logger)
	case config.StoreBackendPostgres:
		return openPostgres(lc, cfg, logger)
	case config.StoreBackendMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		return memstore.New(clk), nil
	default:
		return nil, errs.New("unsupported store backend: " + cfg.Store.Backend)
	}
}

func NewOutboxStore(lc fx.Lifecycle, cfg config.Config, fb *FirebaseLoader, logger *slog.Logger) (worker.OutboxStore, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendFirestore:
		return openFirestore(lc, fb, logger)
	case config.StoreBackendPostgres:
		return openPostgres(lc, cfg, logger)
	default:
		return nil, errs.New("outbox relay does not support store backend: " + cfg.Store.Backend)
	}
}

func openFirestore(lc fx.Lifecycle, fb *FirebaseLoader, logger *slog.Logger) (*fsstore.Store, error) {
	ctx := context.Background()
	app, err := fb.App(ctx)
	if err != nil {
		return nil, err
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "failed to create firestore client")
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})
	logger.Info("Using Firestore store")
	return fsstore.NewStore(client, logger), nil
}

func openPostgres(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (*uow.PostgresUoW, error) {
	pool, cleanup, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			cleanup()
			return nil
		},
	})
	logger.Info("Using PostgreSQL store", "host", cfg.DB.Host, "database", cfg.DB.DBName)
	return uow.NewPostgresUoW(pool, logger), nil
}
