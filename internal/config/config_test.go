package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("RAZORPAY_KEY_SECRET", "rzp")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.HTTPPort)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, 30*time.Minute, cfg.PendingPaymentTTL)
	assert.Equal(t, "INR", cfg.RazorpayCurrency)
	assert.Equal(t, "order-events", cfg.OrderEventsTopic)
	assert.Empty(t, cfg.KafkaBrokers())
	assert.False(t, cfg.LedgerEnabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("PENDING_PAYMENT_TTL", "5m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DB_HOST", "postgres")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "mongo", cfg.StoreBackend)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers())
	assert.Equal(t, 5*time.Minute, cfg.PendingPaymentTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.LedgerEnabled())
	assert.True(t, cfg.LogDevelopment)
}

func TestLoad_RequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RAZORPAY_KEY_SECRET", "")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "RAZORPAY_KEY_SECRET")
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_BACKEND", "sqlite")

	_, err := Load()

	assert.ErrorContains(t, err, "STORE_BACKEND")
}

func TestLoad_ConfigFile(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_PORT: \"7000\"\nORDER_EVENTS_TOPIC: orders\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ORDER_EVENTS_TOPIC", "from-env")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.HTTPPort)
	assert.Equal(t, "from-env", cfg.OrderEventsTopic)
}
