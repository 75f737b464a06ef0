package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=funds_transfer_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultHTTPAddr = ":8080"
const defaultAuthorizerURL = "https://util.devi.tools/api/v2/authorize"
const defaultNotifierURL = "https://util.devi.tools/api/v1/notify"
const defaultNotificationTopic = "transfer-notifications"

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	NotifierDriverLog   = "log"
	NotifierDriverHTTP  = "http"
	NotifierDriverKafka = "kafka"
)

type Config struct {
	HTTPAddr      string
	LogLevel      string
	StoreDriver   string
	DatabaseDSN   string
	MigrationsDir string
	DBMaxOpenConn int
	DBMaxIdleConn int

	AuthorizerURL        string
	AuthorizationTimeout time.Duration

	NotifierDriver      string
	NotifierURL         string
	KafkaBrokers        []string
	NotificationTopic   string
	NotificationTimeout time.Duration

	RedisAddr      string
	RedisPassword  string
	IdempotencyTTL time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
	// TrustedProxies lists the peers allowed to set X-Forwarded-For.
	TrustedProxies []netip.Prefix

	ChannelID      string
	ChannelKeyHash string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	authTimeout, err := durationEnv("AUTHORIZATION_TIMEOUT", 3*time.Second)
	if err != nil {
		return Config{}, err
	}
	notifyTimeout, err := durationEnv("NOTIFICATION_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	idempotencyTTL, err := durationEnv("IDEMPOTENCY_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}

	rps, err := strconv.ParseFloat(stringEnv("RATE_LIMIT_RPS", "20"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(stringEnv("RATE_LIMIT_BURST", "40"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RATE_LIMIT_BURST: %w", err)
	}
	maxOpen, err := strconv.Atoi(stringEnv("DB_MAX_OPEN_CONNS", "30"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_MAX_OPEN_CONNS: %w", err)
	}
	maxIdle, err := strconv.Atoi(stringEnv("DB_MAX_IDLE_CONNS", "20"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_MAX_IDLE_CONNS: %w", err)
	}
	trustedProxies, err := prefixListEnv("TRUSTED_PROXIES")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPAddr:             stringEnv("HTTP_ADDR", defaultHTTPAddr),
		LogLevel:             stringEnv("LOG_LEVEL", "info"),
		StoreDriver:          strings.ToLower(stringEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseDSN:          normalizeConnectionString(stringEnv("DATABASE_DSN", defaultConnectionString)),
		MigrationsDir:        stringEnv("MIGRATIONS_DIR", ""),
		DBMaxOpenConn:        maxOpen,
		DBMaxIdleConn:        maxIdle,
		AuthorizerURL:        stringEnv("AUTHORIZER_URL", defaultAuthorizerURL),
		AuthorizationTimeout: authTimeout,
		NotifierDriver:       strings.ToLower(stringEnv("NOTIFIER_DRIVER", NotifierDriverLog)),
		NotifierURL:          stringEnv("NOTIFIER_URL", defaultNotifierURL),
		KafkaBrokers:         listEnv("KAFKA_BROKERS"),
		NotificationTopic:    stringEnv("NOTIFICATION_TOPIC", defaultNotificationTopic),
		NotificationTimeout:  notifyTimeout,
		RedisAddr:            stringEnv("REDIS_ADDR", ""),
		RedisPassword:        stringEnv("REDIS_PASSWORD", ""),
		IdempotencyTTL:       idempotencyTTL,
		RateLimitRPS:         rps,
		RateLimitBurst:       burst,
		TrustedProxies:       trustedProxies,
		ChannelID:            stringEnv("CHANNEL_ID", ""),
		ChannelKeyHash:       stringEnv("CHANNEL_KEY_HASH", ""),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.NotifierDriver {
	case NotifierDriverLog, NotifierDriverHTTP:
	case NotifierDriverKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when NOTIFIER_DRIVER=kafka")
		}
	default:
		return fmt.Errorf("unsupported NOTIFIER_DRIVER %q", c.NotifierDriver)
	}

	if c.AuthorizationTimeout <= 0 {
		return errors.New("AUTHORIZATION_TIMEOUT must be greater than zero")
	}
	if c.DBMaxOpenConn <= 0 || c.DBMaxIdleConn < 0 {
		return errors.New("DB_MAX_OPEN_CONNS must be greater than zero and DB_MAX_IDLE_CONNS not negative")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be greater than zero")
	}
	return nil
}

func stringEnv(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func listEnv(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// prefixListEnv parses a comma separated list of CIDRs. A bare address is
// taken as a single-host prefix.
func prefixListEnv(key string) ([]netip.Prefix, error) {
	values := listEnv(key)
	if len(values) == 0 {
		return nil, nil
	}

	prefixes := make([]netip.Prefix, 0, len(values))
	for _, value := range values {
		if !strings.Contains(value, "/") {
			addr, err := netip.ParseAddr(value)
			if err != nil {
				return nil, fmt.Errorf("parse %s entry %q: %w", key, value, err)
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(value)
		if err != nil {
			return nil, fmt.Errorf("parse %s entry %q: %w", key, value, err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

// normalizeConnectionString turns an ADO-style "Host=...;Port=..." string into
// the key=value form lib/pq expects. URLs and key=value strings pass through.
func normalizeConnectionString(raw string) string {
	if strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://") || !strings.Contains(raw, ";") {
		return raw
	}

	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
