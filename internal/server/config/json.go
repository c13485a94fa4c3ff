package config

import (
	"encoding/json"
	"os"

	"finledger/internal/flagx"
	"finledger/internal/timex"
)

// JsonConfig mirrors Config for file-based configuration. Durations
// accept either a string ("24h") or a number of nanoseconds.
type JsonConfig struct {
	EndpointAddr          string         `json:"address"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity"`
	Environment           string         `json:"environment"`
	RateLimitMax          int            `json:"rate_limit_max"`
	RateLimitWindow       timex.Duration `json:"rate_limit_window"`
	AMQPURL               string         `json:"amqp_url"`
	AMQPExchange          string         `json:"amqp_exchange"`
	AMQPQueue             string         `json:"amqp_queue"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
}

func parseJson(config *Config) error {
	file := os.Getenv("CONFIG")
	if file == "" {
		file = flagx.JsonConfigFlags()
	}
	if file == "" {
		return nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	if jc.EndpointAddr != "" {
		config.EndpointAddr = jc.EndpointAddr
	}
	if jc.DatabaseDSN != "" {
		config.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.SecretKey != "" {
		config.SecretKey = jc.SecretKey
	}
	if jc.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = jc.TokenValidityDuration.Duration
	}
	if jc.Environment != "" {
		config.Environment = jc.Environment
	}
	if jc.RateLimitMax > 0 {
		config.RateLimitMax = jc.RateLimitMax
	}
	if jc.RateLimitWindow.Duration > 0 {
		config.RateLimitWindow = jc.RateLimitWindow.Duration
	}
	if jc.AMQPURL != "" {
		config.AMQPURL = jc.AMQPURL
	}
	if jc.AMQPExchange != "" {
		config.AMQPExchange = jc.AMQPExchange
	}
	if jc.AMQPQueue != "" {
		config.AMQPQueue = jc.AMQPQueue
	}
	if jc.S3RootUser != "" {
		config.S3RootUser = jc.S3RootUser
	}
	if jc.S3RootPassword != "" {
		config.S3RootPassword = jc.S3RootPassword
	}
	if jc.S3Bucket != "" {
		config.S3Bucket = jc.S3Bucket
	}
	if jc.S3Region != "" {
		config.S3Region = jc.S3Region
	}
	if jc.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = jc.S3BaseEndpoint
	}

	return nil
}
