package bootstrap

import (
	"course-enrollment/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
	),
)

// RelayConfigModule skips the checks only the API needs, such as the
// processor secret.
var RelayConfigModule = fx.Module("relayconfig",
	fx.Provide(
		config.LoadRelayConfig,
	),
)
