package config

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("NOTIFIER_DRIVER", "")
	t.Setenv("AUTHORIZATION_TIMEOUT", "")
	t.Setenv("RATE_LIMIT_RPS", "")
	t.Setenv("RATE_LIMIT_BURST", "")
	t.Setenv("TRUSTED_PROXIES", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "")
	t.Setenv("DB_MAX_IDLE_CONNS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, NotifierDriverLog, cfg.NotifierDriver)
	assert.Equal(t, 3*time.Second, cfg.AuthorizationTimeout)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, float64(20), cfg.RateLimitRPS)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Contains(t, cfg.DatabaseDSN, "dbname=funds_transfer_db")
	assert.Empty(t, cfg.TrustedProxies)
	assert.Equal(t, 30, cfg.DBMaxOpenConn)
	assert.Equal(t, 20, cfg.DBMaxIdleConn)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("NOTIFIER_DRIVER", "kafka")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")
	t.Setenv("AUTHORIZATION_TIMEOUT", "750ms")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.7,10.1.2.3/16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 750*time.Millisecond, cfg.AuthorizationTimeout)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.7/32"),
		netip.MustParsePrefix("10.1.0.0/16"),
	}, cfg.TrustedProxies)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"unknown store":        {"STORE_DRIVER", "sqlite"},
		"unknown notifier":     {"NOTIFIER_DRIVER", "sms"},
		"bad timeout":          {"AUTHORIZATION_TIMEOUT", "soon"},
		"negative timeout":     {"AUTHORIZATION_TIMEOUT", "-1s"},
		"bad rate":             {"RATE_LIMIT_RPS", "fast"},
		"kafka without broker": {"NOTIFIER_DRIVER", "kafka"},
		"bad trusted proxy":    {"TRUSTED_PROXIES", "10.0.0.0/8,not-an-ip"},
		"zero pool":            {"DB_MAX_OPEN_CONNS", "0"},
	}

	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("KAFKA_BROKERS", "")
			t.Setenv(kv[0], kv[1])

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNormalizeConnectionString(t *testing.T) {
	got := normalizeConnectionString("Host=db;Port=5432;Database=ledger;Username=app;Password=pw;CommandTimeout=15")
	assert.Equal(t, "host=db port=5432 dbname=ledger user=app password=pw statement_timeout=15s sslmode=disable", got)

	assert.Equal(t, "postgres://u:p@db/ledger", normalizeConnectionString("postgres://u:p@db/ledger"))
	assert.Equal(t, "host=db sslmode=require", normalizeConnectionString("host=db sslmode=require"))
	assert.Equal(t, "host=db sslmode=verify-full", normalizeConnectionString("Host=db;SslMode=verify-full"))
}
