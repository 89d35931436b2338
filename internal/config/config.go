package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	BaseURL string
	LogMode string

	DBDriver   string
	DBPath     string
	DBUser     string
	DBPassword string
	DBHost     string
	DBName     string

	JWTSecret string

	// Blob storage
	StorageMode         string
	BucketName          string
	StorageEmulatorHost string
	LocalStorageDir     string

	// Task queue
	RedisAddr        string
	QueueKey         string
	QueueMaxAttempts int
	TaskSecret       string
	ShrinkSchedule   string

	// Mail
	InboundMailAddress string
	MailFrom           string
	SendGridAPIKey     string
	SendGridBaseURL    string
}

// LoadConfig reads the environment, after loading a .env file when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	port := getenv("PORT", "8080")

	queueMaxAttempts := 5 // default value
	if s := os.Getenv("QUEUE_MAX_ATTEMPTS"); s != "" {
		if val, err := strconv.Atoi(s); err == nil && val > 0 {
			queueMaxAttempts = val
		}
	}

	return &Config{
		Port:    port,
		BaseURL: strings.TrimRight(getenv("BASE_URL", "http://localhost:"+port), "/"),
		LogMode: getenv("LOG_MODE", "development"),

		DBDriver:   getenv("DB_DRIVER", "sqlite"),
		DBPath:     getenv("DB_PATH", "notes.db"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     os.Getenv("DB_HOST"),
		DBName:     os.Getenv("DB_NAME"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		StorageMode:         getenv("STORAGE_MODE", "local"),
		BucketName:          getenv("GCS_BUCKET_NAME", "notes-media"),
		StorageEmulatorHost: os.Getenv("STORAGE_EMULATOR_HOST"),
		LocalStorageDir:     getenv("LOCAL_STORAGE_DIR", "data/blobs"),

		RedisAddr:        getenv("REDIS_ADDR", "localhost:6379"),
		QueueKey:         getenv("QUEUE_KEY", "notes:tasks"),
		QueueMaxAttempts: queueMaxAttempts,
		TaskSecret:       os.Getenv("TASK_SECRET"),
		ShrinkSchedule:   getenv("SHRINK_SCHEDULE", "0 0 3 * * *"),

		InboundMailAddress: getenv("INBOUND_MAIL_ADDRESS", "create@notes.example.com"),
		MailFrom:           getenv("MAIL_FROM", "Notes team <support@notes.example.com>"),
		SendGridAPIKey:     os.Getenv("SENDGRID_API_KEY"),
		SendGridBaseURL:    os.Getenv("SENDGRID_BASE_URL"),
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
