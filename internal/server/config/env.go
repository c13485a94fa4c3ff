package config

import (
	"os"
	"strconv"
	"time"
)

func getEnv(key string, target *string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func getEnvInt(key string, target *int) {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			*target = i
		}
	}
}

func getEnvDuration(key string, target *time.Duration) {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			*target = d
		}
	}
}

// parseEnv overlays Config fields from environment variables. Unset or
// malformed variables leave the previous layer's value in place.
func parseEnv(config *Config) {
	getEnv("ADDRESS", &config.EndpointAddr)
	getEnv("DATABASE_DSN", &config.DatabaseDSN)
	getEnv("SECRET_KEY", &config.SecretKey)
	getEnvDuration("TOKEN_VALIDITY", &config.TokenValidityDuration)
	getEnv("ENVIRONMENT", &config.Environment)
	getEnvInt("RATE_LIMIT_MAX", &config.RateLimitMax)
	getEnvDuration("RATE_LIMIT_WINDOW", &config.RateLimitWindow)
	getEnv("AMQP_URL", &config.AMQPURL)
	getEnv("AMQP_EXCHANGE", &config.AMQPExchange)
	getEnv("AMQP_QUEUE", &config.AMQPQueue)
	getEnv("S3_ROOT_USER", &config.S3RootUser)
	getEnv("S3_ROOT_PASSWORD", &config.S3RootPassword)
	getEnv("S3_BUCKET", &config.S3Bucket)
	getEnv("S3_REGION", &config.S3Region)
	getEnv("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
}
