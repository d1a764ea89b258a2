package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays configuration from environment variables. A .env file
// in the working directory is loaded first if present; real environment
// variables win over .env entries (godotenv does not overwrite).
func parseEnv(config *Config) {
	_ = godotenv.Load()

	envString(&config.DatabaseDSN, "DATABASE_DSN")

	envDuration(&config.SessionTTL, "SESSION_TTL")
	envInt(&config.SessionCap, "SESSION_CAP")

	envDuration(&config.CodeCooldown, "CODE_COOLDOWN")
	envDuration(&config.CodeTTL, "CODE_TTL")
	envInt(&config.AttemptCap, "ATTEMPT_CAP")

	envString(&config.NamePattern, "NAME_PATTERN")

	envDuration(&config.QueuePollInterval, "QUEUE_POLL_INTERVAL")
	envDuration(&config.GenerationTimeout, "GENERATION_TIMEOUT")

	envString(&config.GenerationEndpoint, "GENERATION_ENDPOINT")
	envString(&config.GenerationModel, "GENERATION_MODEL")
	envString(&config.GenerationAPIKey, "GENERATION_API_KEY")

	envString(&config.SMTPHost, "SMTP_HOST")
	envInt(&config.SMTPPort, "SMTP_PORT")
	envString(&config.SMTPUsername, "SMTP_USERNAME")
	envString(&config.SMTPPassword, "SMTP_PASSWORD")
	envString(&config.MailFrom, "MAIL_FROM")

	envString(&config.S3RootUser, "S3_ROOT_USER")
	envString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
