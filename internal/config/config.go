package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env                 string
	HTTPAddr            string
	StoreDriver         string
	DatabaseURL         string
	DatabaseMaxConns    int64
	JWTSecret           string
	CorsAllowedOrigins  []string
	RabbitMQURL         string
	RabbitMQWorkerMode  string
	EventsExchange      string
	PrintQueue          string
	WSHeartbeatInterval time.Duration
	EffectTimeout       time.Duration
	CatalogTimeout      time.Duration
	VoidPINHash         string
	Currency            string
	OutletName          string
	Timezone            string

	ObjectStoreEndpoint        string
	ObjectStoreRegion          string
	ObjectStoreAccessKeyID     string
	ObjectStoreSecretAccessKey string
	ObjectStoreBucket          string
	ObjectStorePublicBaseURL   string
	ObjectStoreStorageClass    string
	InvoiceArchivePrefix       string
}

func Load() Config {
	cfg := Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8086"),
		StoreDriver:         strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DatabaseMaxConns:    getEnvInt64("DATABASE_MAX_CONNS", 0),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		CorsAllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		RabbitMQWorkerMode:  getEnv("RABBITMQ_WORKER_MODE", "daemon"),
		EventsExchange:      getEnv("RABBITMQ_EVENTS_EXCHANGE", "frontdesk.events"),
		PrintQueue:          getEnv("RABBITMQ_PRINT_QUEUE", "frontdesk.print_jobs"),
		WSHeartbeatInterval: getEnvDuration("WS_HEARTBEAT_INTERVAL", 30*time.Second),
		EffectTimeout:       getEnvDuration("EFFECT_TIMEOUT", 5*time.Second),
		CatalogTimeout:      getEnvDuration("CATALOG_TIMEOUT", 3*time.Second),
		VoidPINHash:         getEnv("VOID_PIN_HASH", ""),
		Currency:            strings.ToUpper(getEnv("CURRENCY", "INR")),
		OutletName:          getEnv("OUTLET_NAME", ""),
		Timezone:            getEnv("OUTLET_TIMEZONE", "Asia/Kolkata"),

		// Object store (Cloudflare R2 / S3-compatible)
		ObjectStoreEndpoint:        getEnvFirst([]string{"OBJECT_STORE_ENDPOINT", "R2_S3_ENDPOINT"}, ""),
		ObjectStoreRegion:          getEnvFirst([]string{"OBJECT_STORE_REGION", "R2_REGION"}, "auto"),
		ObjectStoreAccessKeyID:     getEnvFirst([]string{"OBJECT_STORE_ACCESS_KEY_ID", "R2_ACCESS_KEY_ID"}, ""),
		ObjectStoreSecretAccessKey: getEnvFirst([]string{"OBJECT_STORE_SECRET_ACCESS_KEY", "R2_SECRET_ACCESS_KEY"}, ""),
		ObjectStoreBucket:          getEnvFirst([]string{"OBJECT_STORE_BUCKET", "R2_BUCKET"}, ""),
		ObjectStorePublicBaseURL:   getEnvFirst([]string{"OBJECT_STORE_PUBLIC_BASE_URL", "R2_PUBLIC_BASE_URL"}, ""),
		ObjectStoreStorageClass:    getEnvFirst([]string{"OBJECT_STORE_STORAGE_CLASS", "R2_STORAGE_CLASS"}, "STANDARD"),
		InvoiceArchivePrefix:       getEnv("INVOICE_ARCHIVE_PREFIX", "invoices"),
	}

	if cfg.StoreDriver != "memory" {
		cfg.StoreDriver = "postgres"
	}
	if cfg.EffectTimeout <= 0 {
		cfg.EffectTimeout = 5 * time.Second
	}
	if cfg.CatalogTimeout <= 0 {
		cfg.CatalogTimeout = 3 * time.Second
	}

	// Back-compat: allow R2_ACCOUNT_ID -> endpoint
	if strings.TrimSpace(cfg.ObjectStoreEndpoint) == "" {
		accountID := strings.TrimSpace(os.Getenv("R2_ACCOUNT_ID"))
		if accountID != "" {
			cfg.ObjectStoreEndpoint = "https://" + accountID + ".r2.cloudflarestorage.com"
		}
	}

	return cfg
}

// ArchiveEnabled reports whether invoice PDFs should be uploaded.
func (c Config) ArchiveEnabled() bool {
	return c.ObjectStoreEndpoint != "" && c.ObjectStoreBucket != "" &&
		c.ObjectStoreAccessKeyID != "" && c.ObjectStoreSecretAccessKey != ""
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvFirst(keys []string, fallback string) string {
	for _, k := range keys {
		value := strings.TrimSpace(os.Getenv(k))
		if value != "" {
			return value
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
