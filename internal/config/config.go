package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort        string        `mapstructure:"HTTP_PORT"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	LogLevel       string `mapstructure:"LOG_LEVEL"`
	LogDevelopment bool   `mapstructure:"LOG_DEVELOPMENT"`

	StoreBackend string `mapstructure:"STORE_BACKEND"`
	MongoURI     string `mapstructure:"MONGO_URI"`
	MongoDBName  string `mapstructure:"MONGO_DB_NAME"`
	SeedCatalog  bool   `mapstructure:"SEED_CATALOG"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	LockTTL       time.Duration `mapstructure:"LOCK_TTL"`

	KafkaBrokersRaw  string        `mapstructure:"KAFKA_BROKERS"`
	OrderEventsTopic string        `mapstructure:"ORDER_EVENTS_TOPIC"`
	OutboxInterval   time.Duration `mapstructure:"OUTBOX_INTERVAL"`
	OutboxRetention  time.Duration `mapstructure:"OUTBOX_RETENTION"`

	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         int    `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	RazorpayKeyID     string        `mapstructure:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string        `mapstructure:"RAZORPAY_KEY_SECRET"`
	RazorpayBaseURL   string        `mapstructure:"RAZORPAY_BASE_URL"`
	RazorpayCurrency  string        `mapstructure:"RAZORPAY_CURRENCY"`
	RazorpayTimeout   time.Duration `mapstructure:"RAZORPAY_TIMEOUT"`

	PendingPaymentTTL time.Duration `mapstructure:"PENDING_PAYMENT_TTL"`
}

var defaults = map[string]any{
	"HTTP_PORT":           "4000",
	"REQUEST_TIMEOUT":     "15s",
	"SHUTDOWN_TIMEOUT":    "10s",
	"LOG_LEVEL":           "info",
	"LOG_DEVELOPMENT":     false,
	"STORE_BACKEND":       "memory",
	"MONGO_URI":           "mongodb://localhost:27017/?replicaSet=rs0",
	"MONGO_DB_NAME":       "greencart",
	"SEED_CATALOG":        true,
	"REDIS_ADDR":          "",
	"REDIS_PASSWORD":      "",
	"REDIS_DB":            0,
	"LOCK_TTL":            "10s",
	"KAFKA_BROKERS":       "",
	"ORDER_EVENTS_TOPIC":  "order-events",
	"OUTBOX_INTERVAL":     "1s",
	"OUTBOX_RETENTION":    "24h",
	"DB_HOST":             "",
	"DB_PORT":             5432,
	"DB_USER":             "postgres",
	"DB_PASSWORD":         "",
	"DB_NAME":             "greencart_ledger",
	"MIGRATIONS_PATH":     "internal/ledger/migrations",
	"JWT_SECRET":          "",
	"RAZORPAY_KEY_ID":     "",
	"RAZORPAY_KEY_SECRET": "",
	"RAZORPAY_BASE_URL":   "https://api.razorpay.com",
	"RAZORPAY_CURRENCY":   "INR",
	"RAZORPAY_TIMEOUT":    "10s",
	"PENDING_PAYMENT_TTL": "30m",
}

// Load reads the configuration from the environment, optionally layered over
// the file named by CONFIG_FILE.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.RazorpayKeySecret == "" {
		errs = append(errs, errors.New("RAZORPAY_KEY_SECRET is required"))
	}
	switch c.StoreBackend {
	case "memory", "mongo":
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be memory or mongo, got %q", c.StoreBackend))
	}
	if c.PendingPaymentTTL <= 0 {
		errs = append(errs, errors.New("PENDING_PAYMENT_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// KafkaBrokers splits KAFKA_BROKERS on commas; an empty result disables the event workers.
func (c *Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokersRaw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (c *Config) LedgerEnabled() bool {
	return c.DBHost != ""
}
