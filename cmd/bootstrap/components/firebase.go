package components

import (
	"context"
	"encoding/base64"
	"log/slog"
	"sync"

	"course-enrollment/internal/pkg/config"
	"course-enrollment/internal/pkg/errs"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/fx"
	"google.golang.org/api/option"
)

var FirebaseModule = fx.Module("firebase",
	fx.Provide(
		NewFirebaseLoader,
	),
)

// FirebaseLoader initializes the Admin SDK app on first use, so deployments
// that use neither Firestore nor Firebase auth never need credentials.
type FirebaseLoader struct {
	cfg    config.FirestoreConfig
	logger *slog.Logger

	once sync.Once
	app  *firebase.App
	err  error
}

func NewFirebaseLoader(cfg config.Config, logger *slog.Logger) *FirebaseLoader {
	return &FirebaseLoader{cfg: cfg.Firestore, logger: logger}
}

func (l *FirebaseLoader) App(ctx context.Context) (*firebase.App, error) {
	l.once.Do(func() {
		l.app, l.err = newFirebaseApp(ctx, l.cfg, l.logger)
	})
	return l.app, l.err
}

// Base64 credentials win over a credentials file; with neither, the SDK falls
// back to application default credentials (or the emulator).
func newFirebaseApp(ctx context.Context, cfg config.FirestoreConfig, logger *slog.Logger) (*firebase.App, error) {
	var opts []option.ClientOption

	switch {
	case cfg.CredentialsBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(cfg.CredentialsBase64)
		if err != nil {
			return nil, errs.Wrap(err, "failed to decode FIREBASE_CREDENTIALS_BASE64")
		}
		logger.Info("Using Firebase credentials from base64 environment variable")
		opts = append(opts, option.WithCredentialsJSON(decoded))
	case cfg.CredentialsFile != "":
		logger.Info("Using Firebase credentials file", "path", cfg.CredentialsFile)
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	default:
		logger.Info("Using application default credentials for Firebase")
	}

	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, errs.Wrap(err, "failed to initialize firebase app")
	}
	return app, nil
}
