package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	LogLevel   string
	Database   DatabaseConfig
	Auth       AuthConfig
	MQ         MQConfig
	Storage    StorageConfig
	Snapshot   SnapshotConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// MQConfig selects the broker inventory events are published to.
// An empty Backend disables event publishing.
type MQConfig struct {
	Backend       string
	EventsChannel string
	RabbitMQ      RabbitMQConfig
	PubSub        PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	PrefetchCount   int
	QueueDurable    bool
	QueueAutoDelete bool
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

// StorageConfig selects the object store CSV snapshots are written to.
// An empty Backend disables snapshots.
type StorageConfig struct {
	Backend string
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type SnapshotConfig struct {
	Cron   string
	Prefix string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "inventory"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "inventory_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Database:   dbConfig,
		Auth: AuthConfig{
			JWTSecret: strings.TrimSpace(getEnv("JWT_SECRET", "")),
			TokenTTL:  getEnvDuration("TOKEN_TTL", time.Hour),
		},
		MQ: MQConfig{
			Backend:       strings.ToLower(getEnv("MQ_BACKEND", "")),
			EventsChannel: getEnv("INVENTORY_EVENTS_CHANNEL", "inventory-events"),
			RabbitMQ: RabbitMQConfig{
				URL:             getEnv("RABBITMQ_URL", ""),
				PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 10),
				QueueDurable:    getEnvBool("RABBITMQ_DURABLE", true),
				QueueAutoDelete: getEnvBool("RABBITMQ_AUTO_DELETE", false),
			},
			PubSub: PubSubConfig{
				ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
				SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
			},
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", "")),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "inventory-snapshots"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
		},
		Snapshot: SnapshotConfig{
			Cron:   getEnv("SNAPSHOT_CRON", "0 2 * * *"),
			Prefix: getEnv("SNAPSHOT_PREFIX", "snapshots"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := time.ParseDuration(strings.TrimSpace(valueStr))
		if err != nil || value <= 0 {
			return defaultValue
		}
		return value
	}
	return defaultValue
}
