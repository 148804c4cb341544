package config

import (
	"github.com/joho/godotenv"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Protocol   string
	Host       string
	Port       int
	Username   string
	Password   string
	KnownHosts string
	LogLevel   string
	LogToFile  bool
	BucketName string
	Region     string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using environment variables only")
	}

	config := &Config{
		Protocol:   strings.ToLower(getEnv("SFTPCOPY_PROTOCOL", "sftp")),
		Host:       getEnv("SFTPCOPY_HOST", ""),
		Port:       getEnvInt("SFTPCOPY_PORT", 0),
		Username:   getEnv("SFTPCOPY_USERNAME", ""),
		Password:   getEnv("SFTPCOPY_PASSWORD", ""),
		KnownHosts: getEnv("SFTPCOPY_KNOWN_HOSTS", ""),
		LogLevel:   getEnv("SFTPCOPY_LOG_LEVEL", "info"),
		LogToFile:  getEnvBool("SFTPCOPY_LOG_FILE", false),
		BucketName: getEnv("S3_BUCKET", ""),
		Region:     getEnv("S3_REGION", "us-east-1"),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Ignoring non-numeric value", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("Ignoring non-boolean value", "key", key, "value", value)
		return defaultValue
	}
	return b
}
