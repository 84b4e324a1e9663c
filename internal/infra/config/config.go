package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env          string
	HTTPAddr     string
	DateFormat   string
	Locale       string
	NotifierMode string

	RulesSource   string
	RulesFile     string
	RulesRefresh  time.Duration
	BlocksSource  string
	SessionStore  string
	SessionTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI string
	MongoDB  string

	KafkaBrokers       []string
	KafkaTopicPrefix   string
	KafkaBookingsTopic string
	KafkaGroupID       string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	S3Bucket      string
	S3RulesObject string
	S3UseSSL      bool
}

// LoadDotEnv reads the given .env files into the environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DateFormat:         getEnv("DATE_FORMAT", "d/m/Y"),
		Locale:             strings.ToLower(getEnv("LOCALE", "de")),
		NotifierMode:       strings.ToLower(getEnv("NOTIFIER_MODE", "modal")),
		RulesSource:        strings.ToLower(getEnv("RULES_SOURCE", "file")),
		RulesFile:          getEnv("RULES_FILE", "data/inventory_rules.json"),
		BlocksSource:       strings.ToLower(getEnv("BLOCKS_SOURCE", "memory")),
		SessionStore:       strings.ToLower(getEnv("SESSION_STORE", "memory")),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getEnv("MONGO_DB", "bookingrule"),
		KafkaTopicPrefix:   getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaBookingsTopic: getEnv("KAFKA_BOOKINGS_TOPIC", "booking.events.v1"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "bookingrule"),
		S3Endpoint:         getEnv("S3_ENDPOINT", "http://localhost:9000"),
		S3AccessKey:        getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:        getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:           getEnv("S3_BUCKET", "bookingrule"),
		S3RulesObject:      getEnv("S3_RULES_OBJECT", "inventory_rules.json"),
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", 2*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RulesRefresh, err = parseDurationEnv("RULES_REFRESH", 0); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.S3UseSSL, err = parseBoolEnv("S3_USE_SSL", false); err != nil {
		return Config{}, err
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if err := oneOf("RULES_SOURCE", c.RulesSource, "file", "mongo", "s3", "none"); err != nil {
		return err
	}
	if err := oneOf("BLOCKS_SOURCE", c.BlocksSource, "memory", "mongo", "none"); err != nil {
		return err
	}
	if err := oneOf("SESSION_STORE", c.SessionStore, "memory", "redis"); err != nil {
		return err
	}
	if err := oneOf("LOCALE", c.Locale, "de", "en"); err != nil {
		return err
	}
	if err := oneOf("NOTIFIER_MODE", c.NotifierMode, "modal", "alert"); err != nil {
		return err
	}
	if (c.RulesSource == "mongo" || c.BlocksSource == "mongo") && c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required when rules or blocks come from mongo")
	}
	return nil
}

// KafkaEnabled reports whether a broker list was configured.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (want one of %s)", key, value, strings.Join(allowed, ", "))
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
