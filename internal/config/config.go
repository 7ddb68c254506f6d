// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the mail sender.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration reports a missing or invalid setting.
var ErrConfiguration = errors.New("configuration error")

// DefaultSubject is used when MAIL_SUBJECT is unset.
const DefaultSubject = "S3 Content Mail"

// Transport names accepted by MAIL_TRANSPORT.
const (
	TransportSMTP = "smtp"
	TransportSES  = "ses"
)

// Config holds the complete application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Mail    MailConfig    `yaml:"mail"`
	SMTP    SMTPConfig    `yaml:"smtp"`
	SES     SESConfig     `yaml:"ses"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig holds the object store location and client settings.
type StorageConfig struct {
	Bucket          string `yaml:"bucket"`
	TextKey         string `yaml:"text_key"`
	AudioKey        string `yaml:"audio_key"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	UsePathStyle    bool   `yaml:"use_path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// MailConfig holds the message envelope and dispatch mode.
type MailConfig struct {
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	Subject   string `yaml:"subject"`
	DryRun    bool   `yaml:"dry_run"`
	Transport string `yaml:"transport"`
}

// SMTPConfig holds the outbound SMTP connection parameters.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Secure   bool   `yaml:"secure"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SESConfig holds AWS SES settings, used when the transport is "ses".
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvVars()

	return cfg, nil
}

// Recipients returns the parsed recipient list of the mail section.
func (c *Config) Recipients() []string {
	return ParseRecipients(c.Mail.To)
}

// SubjectOrDefault returns the configured subject or DefaultSubject.
func (c *Config) SubjectOrDefault() string {
	if c.Mail.Subject == "" {
		return DefaultSubject
	}
	return c.Mail.Subject
}

// Validate checks the settings the mail flow cannot run without:
// bucket, text key, sender and at least one recipient.
func (c *Config) Validate() error {
	switch {
	case c.Storage.Bucket == "":
		return fmt.Errorf("%w: S3_BUCKET_NAME is not defined", ErrConfiguration)
	case c.Storage.TextKey == "":
		return fmt.Errorf("%w: S3_TEXT_KEY is not defined", ErrConfiguration)
	case c.Mail.From == "":
		return fmt.Errorf("%w: MAIL_FROM_EMAIL is not defined", ErrConfiguration)
	case len(c.Recipients()) == 0:
		return fmt.Errorf("%w: MAIL_TO_EMAILS is not defined", ErrConfiguration)
	}
	return nil
}

// AuthEnabled returns true if both SMTP username and password are set.
func (c *Config) AuthEnabled() bool {
	return c.SMTP.Username != "" && c.SMTP.Password != ""
}

// ParseRecipients splits a comma-separated address list, trims each entry
// and drops the empty ones.
func ParseRecipients(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// applyDefaults sets default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Storage.Region = "ap-northeast-1"
	c.Mail.Transport = TransportSMTP
	c.SMTP.Host = "localhost"
	c.SMTP.Port = 1025
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("S3_BUCKET_NAME"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("S3_TEXT_KEY"); v != "" {
		c.Storage.TextKey = v
	}
	if v := os.Getenv("S3_AUDIO_KEY"); v != "" {
		c.Storage.AudioKey = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Storage.Region = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		c.Storage.Endpoint = v
	}
	if v := os.Getenv("AWS_USE_PATH_STYLE_ENDPOINT"); v != "" {
		c.Storage.UsePathStyle = v == "true"
	}
	if v := os.Getenv("S3_ACCESS_KEY_ID"); v != "" {
		c.Storage.AccessKeyID = v
	}
	if v := os.Getenv("S3_SECRET_ACCESS_KEY"); v != "" {
		c.Storage.SecretAccessKey = v
	}

	if v := os.Getenv("MAIL_FROM_EMAIL"); v != "" {
		c.Mail.From = v
	}
	if v := os.Getenv("MAIL_TO_EMAILS"); v != "" {
		c.Mail.To = v
	}
	if v := os.Getenv("MAIL_SUBJECT"); v != "" {
		c.Mail.Subject = v
	}
	if v := os.Getenv("MAIL_DRY_RUN"); v != "" {
		c.Mail.DryRun = v == "true"
	}
	if v := os.Getenv("MAIL_TRANSPORT"); v != "" {
		c.Mail.Transport = strings.ToLower(v)
	}

	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_SECURE"); v != "" {
		c.SMTP.Secure = v == "true"
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASS"); v != "" {
		c.SMTP.Password = v
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
