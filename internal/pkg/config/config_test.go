//go:build unit

package config_test

import (
	"testing"

	"course-enrollment/internal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("requires the processor secret", func(t *testing.T) {
		setEnv(t, map[string]string{
			"STORE_BACKEND":       "memory",
			"AUTH_PROVIDER":       "firebase",
			"PAYSTACK_SECRET_KEY": "",
		})

		_, err := config.LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PAYSTACK_SECRET_KEY")
	})

	t.Run("loads with the secret set", func(t *testing.T) {
		setEnv(t, map[string]string{
			"STORE_BACKEND":       "memory",
			"AUTH_PROVIDER":       "firebase",
			"PAYSTACK_SECRET_KEY": "sk_live_value",
		})

		cfg, err := config.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "sk_live_value", cfg.Paystack.SecretKey)
		assert.NotContains(t, cfg.Paystack.String(), "sk_live_value")
	})

	t.Run("postgres backend needs credentials", func(t *testing.T) {
		setEnv(t, map[string]string{
			"STORE_BACKEND":       "postgres",
			"AUTH_PROVIDER":       "firebase",
			"PAYSTACK_SECRET_KEY": "sk",
			"DB_USER":             "",
			"DB_NAME":             "",
		})

		_, err := config.LoadConfig()
		assert.Error(t, err)
	})
}

func TestLoadRelayConfig(t *testing.T) {
	t.Run("does not need the processor secret", func(t *testing.T) {
		setEnv(t, map[string]string{
			"STORE_BACKEND":       "postgres",
			"DB_USER":             "relay",
			"DB_NAME":             "enrollments",
			"PAYSTACK_SECRET_KEY": "",
		})

		cfg, err := config.LoadRelayConfig()
		require.NoError(t, err)
		assert.Empty(t, cfg.Paystack.SecretKey)
		assert.Equal(t, "enrollment_events", cfg.RabbitMQ.Queue)
	})

	t.Run("rejects the memory backend", func(t *testing.T) {
		setEnv(t, map[string]string{"STORE_BACKEND": "memory"})

		_, err := config.LoadRelayConfig()
		assert.Error(t, err)
	})
}
