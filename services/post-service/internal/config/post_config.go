package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"seungpyo.lee/MemoryJournal/pkg/config"
)

type PostConfig struct {
	config.GlobalConfig
	PostgreConnectionString string
	JWTSecretKey            string
	RedisDBURL              string // optional; enables session revocation
	RedisDBPort             string
	RedisDBPassword         string
	RedisMaxRetries         int
	RedisPoolSize           int
}

func LoadPostConfig() *PostConfig {
	// Load .env file for local development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}
	return &PostConfig{
		GlobalConfig:            *config.LoadGlobalConfig(),
		PostgreConnectionString: getEnv("POSTGRE_CONNECTION_STRING"),
		JWTSecretKey:            getEnv("JWT_SECRET_KEY"),
		RedisDBURL:              getEnvOrDefault("REDIS_DB_URL", ""),
		RedisDBPort:             getEnvOrDefault("REDIS_DB_PORT", "6379"),
		RedisDBPassword:         getEnvOrDefault("REDIS_DB_PASSWORD", ""),
		RedisMaxRetries:         getEnvInt("REDIS_MAX_RETRIES", 3),
		RedisPoolSize:           getEnvInt("REDIS_POOL_SIZE", 10),
	}
}

// RedisEnabled reports whether a revocation store is configured.
func (c *PostConfig) RedisEnabled() bool {
	return c.RedisDBURL != ""
}

// getEnv retrieves the value of the environment variable named by the key.
func getEnv(key string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	} else {
		panic("critical config missing: " + key)
	}
}

// getEnvOrDefault retrieves the value or returns default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
