package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("BROKER_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.Database.Driver)
	assert.Equal(t, BrokerDriverNone, cfg.Broker.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Registry.NameCacheTTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("BROKER_DRIVER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("API_RATE_LIMIT", "30")
	t.Setenv("REGISTRY_EVENT_POLL_INTERVAL", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.Database.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Broker.KafkaBrokers)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 30, cfg.API.RateLimitPerMinute)
	assert.Equal(t, 2*time.Second, cfg.Registry.EventPollInterval)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsUnknownDrivers(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Database.Driver = "mongo"
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = StoreDriverMemory
	cfg.Broker.Driver = "nats"
	assert.Error(t, cfg.Validate())
}

func TestValidate_DefaultSecretInProduction(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.App.Environment = "production"
	cfg.Auth.AccessSecret = defaultAccessSecret
	assert.Error(t, cfg.Validate())

	cfg.Auth.AccessSecret = "a-real-secret"
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", d.GetDSN())
}
