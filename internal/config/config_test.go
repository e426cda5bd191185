package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, cfg.Database.WriterDSN, cfg.Database.ReaderDSN)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, 15*time.Second, cfg.Notifications.PollInterval)
	assert.Equal(t, "/order-confirmation", cfg.Checkout.ConfirmationPath)
	assert.Equal(t, 5*time.Second, cfg.Remote.Timeout)
}

func TestNew_StorageDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", " Memory ")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}

func TestNew_RejectsUnknownStorageDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "indexeddb")

	_, err := New()
	assert.Error(t, err)
}

func TestNew_DatabaseDisabledAllowsEmptyDSN(t *testing.T) {
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("DB_WRITER_DSN", "")

	cfg, err := New()
	require.NoError(t, err)
	assert.False(t, cfg.Database.Enabled)
}

func TestNew_NormalizesValues(t *testing.T) {
	t.Setenv("NOTIFY_POLL_INTERVAL", "-1s")
	t.Setenv("CHECKOUT_CONFIRMATION_PATH", "thanks/")
	t.Setenv("KAFKA_BROKERS", "a:9092, ,b:9092")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.Notifications.PollInterval)
	assert.Equal(t, "/thanks", cfg.Checkout.ConfirmationPath)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Messaging.Kafka.Brokers)
}

func TestNew_StorageRedisFallsBackToCacheRedis(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("STORAGE_REDIS_ADDR", "  ")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)

	t.Setenv("STORAGE_REDIS_ADDR", "storage:6379")
	cfg, err = New()
	require.NoError(t, err)
	assert.Equal(t, "storage:6379", cfg.Storage.Redis.Addr)
}

func TestNew_MemoryDrivers(t *testing.T) {
	t.Setenv("CACHE_DRIVER", "memory")
	t.Setenv("MESSAGING_DRIVER", "memory")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, "memory", cfg.Messaging.Driver)
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("ATELIER_TEST_DURATION", "30")
	assert.Equal(t, 30*time.Second, getEnvAsDuration("ATELIER_TEST_DURATION", time.Second))

	t.Setenv("ATELIER_TEST_DURATION", "1m30s")
	assert.Equal(t, 90*time.Second, getEnvAsDuration("ATELIER_TEST_DURATION", time.Second))

	t.Setenv("ATELIER_TEST_DURATION", "soon")
	assert.Equal(t, time.Second, getEnvAsDuration("ATELIER_TEST_DURATION", time.Second))
}

func TestNew_TraceSampling(t *testing.T) {
	t.Setenv("OBS_TRACE_SAMPLING", "0.25")
	cfg, err := New()
	require.NoError(t, err)
	assert.InDelta(t, 0.25, cfg.Observability.TraceSampling, 1e-9)

	t.Setenv("OBS_TRACE_SAMPLING", "2")
	_, err = New()
	assert.Error(t, err)
}
