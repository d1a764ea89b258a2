package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/jspark-dev/pantrykeeper/internal/flagx"
	"github.com/jspark-dev/pantrykeeper/internal/timex"
)

// JsonConfig is the DTO used only for reading JSON configuration files.
// Interval fields use timex.Duration so both "3m" strings and integer
// nanoseconds parse. Zero values are not copied over, so the JSON file can
// override a subset of the config.
type JsonConfig struct {
	DatabaseDSN string `json:"database_dsn"`

	SessionTTL timex.Duration `json:"session_ttl"`
	SessionCap int            `json:"session_cap"`

	CodeCooldown timex.Duration `json:"code_cooldown"`
	CodeTTL      timex.Duration `json:"code_ttl"`
	AttemptCap   int            `json:"attempt_cap"`

	NamePattern string `json:"name_pattern"`

	QueuePollInterval timex.Duration `json:"queue_poll_interval"`
	GenerationTimeout timex.Duration `json:"generation_timeout"`

	GenerationEndpoint string `json:"generation_endpoint"`
	GenerationModel    string `json:"generation_model"`
	GenerationAPIKey   string `json:"generation_api_key"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"smtp_password"`
	MailFrom     string `json:"mail_from"`

	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. If no flag is given, nothing
// is loaded. An unreadable or invalid file panics: a half-applied config
// must not start the server.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setDuration(&config.SessionTTL, c.SessionTTL)
	setInt(&config.SessionCap, c.SessionCap)
	setDuration(&config.CodeCooldown, c.CodeCooldown)
	setDuration(&config.CodeTTL, c.CodeTTL)
	setInt(&config.AttemptCap, c.AttemptCap)
	setString(&config.NamePattern, c.NamePattern)
	setDuration(&config.QueuePollInterval, c.QueuePollInterval)
	setDuration(&config.GenerationTimeout, c.GenerationTimeout)
	setString(&config.GenerationEndpoint, c.GenerationEndpoint)
	setString(&config.GenerationModel, c.GenerationModel)
	setString(&config.GenerationAPIKey, c.GenerationAPIKey)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
