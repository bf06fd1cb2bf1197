package config

import (
	"os"
	"strconv"
)

type GlobalConfig struct {
	SessionTTL int // in minutes
	ServerPort string
	LogLevel   string
}

func LoadGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		SessionTTL: getEnvInt("SESSION_TTL_MINUTES", 1440), // 1 day
		ServerPort: getEnv("SERVER_PORT"),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "info"),
	}
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

func getEnvInt(key string, defaultValue int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		panic("invalid integer config: " + key)
	}
	return n
}
