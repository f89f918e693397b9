package components

import (
	"context"
	"log/slog"

	"course-enrollment/internal/infra/firebaseauth"
	"course-enrollment/internal/pkg/config"
	"course-enrollment/internal/pkg/errs"
	"course-enrollment/internal/pkg/jwt"
	"course-enrollment/internal/usecase"
	"course-enrollment/internal/usecase/commands"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewPaymentCommands,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		NewTokenValidator,
	),
)

func NewTokenValidator(cfg config.Config, fb *FirebaseLoader, jwtService *jwt.Service, logger *slog.Logger) (usecase.TokenValidator, error) {
	switch cfg.Auth.Provider {
	case config.AuthProviderJWT:
		logger.Info("Resolving callers from HS256 bearer tokens")
		return usecase.NewTokenValidator(jwtService), nil
	case config.AuthProviderFirebase:
		ctx := context.Background()
		app, err := fb.App(ctx)
		if err != nil {
			return nil, err
		}
		client, err := app.Auth(ctx)
		if err != nil {
			return nil, errs.Wrap(err, "failed to create firebase auth client")
		}
		logger.Info("Resolving callers from Firebase ID tokens")
		return firebaseauth.NewValidator(client), nil
	default:
		return nil, errs.New("unsupported auth provider: " + cfg.Auth.Provider)
	}
}
