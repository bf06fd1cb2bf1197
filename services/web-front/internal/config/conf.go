package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"seungpyo.lee/MemoryJournal/pkg/config"
)

const (
	DriverS3     = "s3"
	DriverAzBlob = "azblob"
	DriverGCS    = "gcs"
)

type WebConfig struct {
	config.GlobalConfig
	PostServiceURL string
	JWTSecretKey   string
	LoginURL       string
	StorageDriver  string

	AWSRegion          string
	AWSBucketName      string
	AWSAccessKeyID     string // optional; falls back to the default credential chain
	AWSSecretAccessKey string

	AzureStorageConnectionString string
	BlobContainerName            string

	GCSBucketName string
}

func LoadWebConfig() *WebConfig {
	// Load .env file for local development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}
	cfg := &WebConfig{
		GlobalConfig:   *config.LoadGlobalConfig(),
		PostServiceURL: getEnv("POST_SERVICE_URL"),
		JWTSecretKey:   getEnv("JWT_SECRET_KEY"),
		LoginURL:       getEnvOrDefault("LOGIN_URL", "/api/auth/signin"),
		StorageDriver:  getEnvOrDefault("STORAGE_DRIVER", DriverS3),
	}
	switch cfg.StorageDriver {
	case DriverS3:
		cfg.AWSRegion = getEnv("AWS_REGION")
		cfg.AWSBucketName = getEnv("AWS_BUCKET_NAME")
		cfg.AWSAccessKeyID = getEnvOrDefault("AWS_ACCESS_KEY_ID", "")
		cfg.AWSSecretAccessKey = getEnvOrDefault("AWS_SECRET_ACCESS_KEY", "")
	case DriverAzBlob:
		cfg.AzureStorageConnectionString = getEnv("AZURE_STORAGE_CONNECTION_STRING")
		cfg.BlobContainerName = getEnv("BLOB_CONTAINER_NAME")
	case DriverGCS:
		cfg.GCSBucketName = getEnv("GCS_BUCKET_NAME")
	default:
		panic("unknown STORAGE_DRIVER: " + cfg.StorageDriver)
	}
	return cfg
}

// getEnv retrieves the value of the environment variable named by the key.
func getEnv(key string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	} else {
		panic("critical config missing: " + key)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
