package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	StorageDriver string // "local" or "s3"
	StorageDir    string
	AwsAccessKey  string
	AwsSecretKey  string
	AwsRegion     string
	BucketName    string
	S3Endpoint    string

	PDFExtractor string // "pdf" or "docconv"
	Workers      int
	QueueSize    int
	MaxUploadMB  int
	BatchTimeout time.Duration

	LogLevel  string
	LogFormat string

	JWTSecret      string
	CorsOrigins    []string
	StaticDir      string
	DownloadPrefix string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "3000"),

		StorageDriver: getEnv("STORAGE_DRIVER", "local"),
		StorageDir:    getEnv("STORAGE_DIR", "/tmp/trackname"),
		AwsAccessKey:  getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:  getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:     getEnv("AWS_REGION", "us-east-2"),
		BucketName:    getEnv("BUCKET_NAME", "trackname-batches"),
		S3Endpoint:    getEnv("S3_ENDPOINT", ""),

		PDFExtractor: getEnv("PDF_EXTRACTOR", "pdf"),
		Workers:      getEnvInt("WORKERS", 4),
		QueueSize:    getEnvInt("QUEUE_SIZE", 64),
		MaxUploadMB:  getEnvInt("MAX_UPLOAD_MB", 64),
		BatchTimeout: time.Duration(getEnvInt("BATCH_TIMEOUT_MIN", 10)) * time.Minute,

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		CorsOrigins:    getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		StaticDir:      getEnv("STATIC_DIR", "./public"),
		DownloadPrefix: getEnv("PUBLIC_DOWNLOAD_PREFIX", "/download/"),
	}

	return cfg
}

// Validate checks the settings the app cannot start without.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "local":
		if c.StorageDir == "" {
			return fmt.Errorf("STORAGE_DIR not set")
		}
	case "s3":
		if c.BucketName == "" {
			return fmt.Errorf("BUCKET_NAME not set")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("QUEUE_SIZE must be at least 1, got %d", c.QueueSize)
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_MB must be at least 1, got %d", c.MaxUploadMB)
	}
	if c.BatchTimeout <= 0 {
		return fmt.Errorf("BATCH_TIMEOUT_MIN must be positive")
	}
	if !strings.HasPrefix(c.DownloadPrefix, "/") || !strings.HasSuffix(c.DownloadPrefix, "/") || c.DownloadPrefix == "/" {
		return fmt.Errorf("PUBLIC_DOWNLOAD_PREFIX must be a path like /download/, got %q", c.DownloadPrefix)
	}
	return nil
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
